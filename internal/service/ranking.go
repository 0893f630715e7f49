package service

import (
	"sort"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// AssignRanks сортирует результаты по убыванию балла и проставляет ранги
// по схеме 1,1,3: равные баллы делят ранг, следующий ранг пропускает занятые места.
// При равных баллах порядок определяется team_id, чтобы пересчет был детерминированным.
// Исходный срез не меняется.
func AssignRanks(grades []entity.Grade) []entity.Grade {
	ranked := make([]entity.Grade, len(grades))
	copy(ranked, grades)

	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].Score.Cmp(ranked[j].Score); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].TeamID < ranked[j].TeamID
	})

	rank := 0
	for i := range ranked {
		if i == 0 || !ranked[i].Score.Equal(ranked[i-1].Score) {
			rank = i + 1
		}
		r := rank
		ranked[i].Ranking = &r
	}
	return ranked
}
