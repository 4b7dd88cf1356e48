package trajectory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// fileFormat es el formato de trajectories.json:
//
//	{"variables": {"HOMOSEX": {"description": "...", "first_year": 1973, "trajectory": {"1973": 11, ...}}}}
type fileFormat struct {
	Variables map[string]struct {
		Description string             `json:"description"`
		Question    string             `json:"question"`
		FirstYear   int                `json:"first_year"`
		Trajectory  map[string]float64 `json:"trajectory"`
	} `json:"variables"`
}

// File carga variables desde un fichero JSON.
type File struct {
	path string
}

// NewFile crea el provider para la ruta dada. El fichero se lee en cada llamada.
func NewFile(path string) *File {
	return &File{path: path}
}

// Variables implementa ports.TrajectoryProvider.
func (f *File) Variables(_ context.Context) ([]domain.Variable, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("trajectory.File: read %q: %w", f.path, err)
	}

	var raw fileFormat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("trajectory.File: parse %q: %w", f.path, err)
	}

	out := make([]domain.Variable, 0, len(raw.Variables))
	for id, v := range raw.Variables {
		traj := make(domain.Trajectory, len(v.Trajectory))
		for ys, val := range v.Trajectory {
			year, err := strconv.Atoi(ys)
			if err != nil {
				return nil, fmt.Errorf("trajectory.File: %s: invalid year %q: %w", id, ys, err)
			}
			traj[year] = val
		}
		out = append(out, domain.Variable{
			ID:          id,
			Description: v.Description,
			Question:    v.Question,
			FirstYear:   v.FirstYear,
			Trajectory:  traj,
		})
	}
	sortVariables(out)
	return out, nil
}
