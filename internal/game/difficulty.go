package game

import "strings"

type Difficulty struct {
	ID   int
	Name string
}

const (
	AmazingDifficulty = iota
	MediumDifficulty
	EasyDifficulty
	SupaeasyDifficulty
)

var Difficulties = map[int]Difficulty{
	SupaeasyDifficulty: {ID: SupaeasyDifficulty, Name: "Supaeasy"},
	EasyDifficulty:     {ID: EasyDifficulty, Name: "Easy"},
	MediumDifficulty:   {ID: MediumDifficulty, Name: "Medium"},
	AmazingDifficulty:  {ID: AmazingDifficulty, Name: "Amazing"},
}

// DifficultyByName matches case insensitively, also accepting "expert" for Amazing
func DifficultyByName(name string) (Difficulty, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "expert" {
		name = "amazing"
	}
	for _, d := range Difficulties {
		if strings.ToLower(d.Name) == name {
			return d, true
		}
	}
	return Difficulty{}, false
}
