package trajectory

import (
	"context"
	"sort"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// Builtin sirve las variables GSS con sus trayectorias conocidas
// (% que da la respuesta liberal, GSS Data Explorer).
type Builtin struct{}

// NewBuiltin crea el provider con los datos embebidos.
func NewBuiltin() *Builtin { return &Builtin{} }

// gssQuestions contiene las preguntas GSS de seguimiento. Solo las que tienen
// trayectoria conocida se devuelven como variables.
var gssQuestions = map[string]struct {
	question    string
	description string
	firstYear   int
}{
	"HOMOSEX": {
		question:    "What about sexual relations between two adults of the same sex - do you think it is always wrong, almost always wrong, wrong only sometimes, or not wrong at all?",
		description: "Attitudes toward homosexual relations",
		firstYear:   1973,
	},
	"GRASS": {
		question:    "Do you think the use of marijuana should be made legal or not?",
		description: "Marijuana legalization support",
		firstYear:   1973,
	},
	"FEPOL": {
		question:    "Tell me if you agree or disagree with this statement: Most men are better suited emotionally for politics than are most women.",
		description: "Women suited for politics",
		firstYear:   1974,
	},
	"PREMARSX": {
		question:    "There's been a lot of discussion about the way morals and attitudes about sex are changing in this country. If a man and woman have sex relations before marriage, do you think it is always wrong, almost always wrong, wrong only sometimes, or not wrong at all?",
		description: "Premarital sex attitudes",
		firstYear:   1972,
	},
	"CAPPUN": {
		question:    "Do you favor or oppose the death penalty for persons convicted of murder?",
		description: "Death penalty support",
		firstYear:   1972,
	},
	"GUNLAW": {
		question:    "Would you favor or oppose a law which would require a person to obtain a police permit before he or she could buy a gun?",
		description: "Gun permit requirement support",
		firstYear:   1972,
	},
	"ABANY": {
		question:    "Please tell me whether or not you think it should be possible for a pregnant woman to obtain a legal abortion if the woman wants it for any reason?",
		description: "Abortion for any reason support",
		firstYear:   1977,
	},
}

var gssTrajectories = map[string]domain.Trajectory{
	"HOMOSEX":  {1973: 11, 1980: 14, 1990: 13, 2000: 27, 2010: 41, 2018: 58, 2021: 64}, // "Not wrong at all"
	"GRASS":    {1973: 19, 1980: 25, 1990: 16, 2000: 31, 2010: 44, 2018: 61, 2021: 68}, // "Legal"
	"FEPOL":    {1974: 53, 1980: 56, 1990: 63, 2000: 71, 2010: 76, 2018: 81},           // "Disagree"
	"PREMARSX": {1972: 26, 1980: 33, 1990: 36, 2000: 38, 2010: 42, 2018: 49},           // "Not wrong at all"
	"CAPPUN":   {1972: 42, 1980: 27, 1990: 22, 2000: 28, 2010: 35, 2018: 39, 2021: 40}, // "Oppose"
}

// Variables implementa ports.TrajectoryProvider.
func (b *Builtin) Variables(_ context.Context) ([]domain.Variable, error) {
	out := make([]domain.Variable, 0, len(gssTrajectories))
	for id, traj := range gssTrajectories {
		q := gssQuestions[id]
		cp := make(domain.Trajectory, len(traj))
		for y, v := range traj {
			cp[y] = v
		}
		out = append(out, domain.Variable{
			ID:          id,
			Description: q.description,
			Question:    q.question,
			FirstYear:   q.firstYear,
			Trajectory:  cp,
		})
	}
	sortVariables(out)
	return out, nil
}

func sortVariables(vs []domain.Variable) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].ID < vs[j].ID })
}
