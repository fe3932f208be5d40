package badge

import (
	"github.com/linemk/bookstore/internal/domain/models"
)

// Event - контекст события, после которого пересматриваются награды.
// Счётчики, не относящиеся к типу события, остаются нулевыми.
type Event struct {
	Type                 Kind
	PurchaseCount        int
	ReviewCount          int
	IsNewReleasePurchase bool
	DaysSinceRelease     int
	UniqueGenresCount    int
	BooksByAuthorCount   int
	CollectionSize       int
}

// Skipped - награда, которую не удалось оценить
type Skipped struct {
	Badge  *models.Badge
	Reason string
}

// Result - итог одного прохода оценки
type Result struct {
	Granted []*models.Badge
	Skipped []Skipped
}

// Evaluate выбирает награды, которые пользователь получает за событие.
// held - награды, которые уже были у пользователя до прохода; пререквизит
// проверяется только по ним, выданное в этом же проходе не считается.
func Evaluate(badges []*models.Badge, held map[int64]bool, ev Event) Result {
	var res Result
	for _, b := range badges {
		if held[b.ID] {
			continue
		}

		crit, err := ParseCriterion(b.Criteria)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Badge: b, Reason: err.Error()})
			continue
		}
		if u, ok := crit.(Unknown); ok {
			res.Skipped = append(res.Skipped, Skipped{Badge: b, Reason: "unknown criterion type " + u.Type})
			continue
		}
		if crit.Kind() != ev.Type {
			continue
		}
		if !crit.Satisfied(ev) {
			continue
		}
		if b.BaseBadgeID != nil && !held[*b.BaseBadgeID] {
			continue
		}
		res.Granted = append(res.Granted, b)
	}
	return res
}
