package domain

import "sort"

// Trajectory es la serie histórica de una variable: año → porcentaje en [0,100].
// Los años pueden tener huecos. El core nunca la modifica, solo la filtra.
type Trajectory map[int]float64

// Variable es una pregunta de encuesta con su trayectoria observada.
type Variable struct {
	ID          string
	Description string
	Question    string
	FirstYear   int // primer año en que se hizo la pregunta; 0 = desconocido
	Trajectory  Trajectory
}

// Since devuelve FirstYear o, si no se conoce, el primer año observado.
func (v Variable) Since() int {
	if v.FirstYear > 0 {
		return v.FirstYear
	}
	if years := v.Trajectory.Years(); len(years) > 0 {
		return years[0]
	}
	return 0
}

// Years devuelve los años observados en orden ascendente.
func (t Trajectory) Years() []int {
	years := make([]int, 0, len(t))
	for y := range t {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// History devuelve años y valores con año <= cutoff, ordenados por año.
// Siempre devuelve copias nuevas.
func (t Trajectory) History(cutoff int) ([]int, []float64) {
	var years []int
	for _, y := range t.Years() {
		if y <= cutoff {
			years = append(years, y)
		}
	}
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = t[y]
	}
	return years, values
}

// YearsAfter devuelve los años observados estrictamente posteriores a cutoff.
func (t Trajectory) YearsAfter(cutoff int) []int {
	var out []int
	for _, y := range t.Years() {
		if y > cutoff {
			out = append(out, y)
		}
	}
	return out
}

// Actual devuelve el valor observado en year, si existe.
func (t Trajectory) Actual(year int) (float64, bool) {
	v, ok := t[year]
	return v, ok
}
