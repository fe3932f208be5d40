// Package badge описывает критерии наград как закрытый набор вариантов
// и чистую функцию оценки, которая решает, какие награды выдать за событие.
package badge

import (
	"encoding/json"
	"fmt"
)

// Kind - тип критерия; он же тип события, которое его проверяет
type Kind string

const (
	KindPurchaseCount      Kind = "purchase_count"
	KindReviewCount        Kind = "review_count"
	KindNewReleasePurchase Kind = "new_release_purchase"
	KindGenreReadCount     Kind = "genre_read_count"
	KindAuthorReadCount    Kind = "author_read_count"
	KindCollectionSize     Kind = "collection_size"
)

// Criterion - вариант критерия. Реализации есть только в этом пакете.
type Criterion interface {
	Kind() Kind
	// Satisfied проверяет порог по контексту события того же типа
	Satisfied(ev Event) bool
	sealed()
}

// PurchaseCount - не меньше Threshold оформленных заказов
type PurchaseCount struct{ Threshold int }

// ReviewCount - не меньше Threshold отзывов
type ReviewCount struct{ Threshold int }

// NewReleasePurchase - покупка новинки не позже Days дней после выхода
type NewReleasePurchase struct{ Days int }

// GenreReadCount - куплены книги не менее Threshold разных жанров
type GenreReadCount struct{ Threshold int }

// AuthorReadCount - не менее Threshold книг одного автора
type AuthorReadCount struct{ Threshold int }

// CollectionSize - всего куплено не менее Threshold экземпляров
type CollectionSize struct{ Threshold int }

// Unknown - критерий, тип которого приложение не знает; никогда не выполняется
type Unknown struct{ Type string }

func (PurchaseCount) Kind() Kind      { return KindPurchaseCount }
func (ReviewCount) Kind() Kind        { return KindReviewCount }
func (NewReleasePurchase) Kind() Kind { return KindNewReleasePurchase }
func (GenreReadCount) Kind() Kind     { return KindGenreReadCount }
func (AuthorReadCount) Kind() Kind    { return KindAuthorReadCount }
func (CollectionSize) Kind() Kind     { return KindCollectionSize }
func (u Unknown) Kind() Kind          { return Kind(u.Type) }

func (c PurchaseCount) Satisfied(ev Event) bool { return ev.PurchaseCount >= c.Threshold }
func (c ReviewCount) Satisfied(ev Event) bool   { return ev.ReviewCount >= c.Threshold }
func (c NewReleasePurchase) Satisfied(ev Event) bool {
	return ev.IsNewReleasePurchase && ev.DaysSinceRelease <= c.Days
}
func (c GenreReadCount) Satisfied(ev Event) bool  { return ev.UniqueGenresCount >= c.Threshold }
func (c AuthorReadCount) Satisfied(ev Event) bool { return ev.BooksByAuthorCount >= c.Threshold }
func (c CollectionSize) Satisfied(ev Event) bool  { return ev.CollectionSize >= c.Threshold }
func (Unknown) Satisfied(Event) bool              { return false }

func (PurchaseCount) sealed()      {}
func (ReviewCount) sealed()        {}
func (NewReleasePurchase) sealed() {}
func (GenreReadCount) sealed()     {}
func (AuthorReadCount) sealed()    {}
func (CollectionSize) sealed()     {}
func (Unknown) sealed()            {}

// rawCriterion - формат колонки badges.criteria: {"type": "...", "value": N, "days": N}
type rawCriterion struct {
	Type  string `json:"type" yaml:"type"`
	Value int    `json:"value,omitempty" yaml:"value,omitempty"`
	Days  int    `json:"days,omitempty" yaml:"days,omitempty"`
}

// ParseCriterion разбирает jsonb колонку. Неизвестный тип - не ошибка, а вариант Unknown.
func ParseCriterion(data []byte) (Criterion, error) {
	var raw rawCriterion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("badge: invalid criteria: %w", err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("badge: criteria type is empty")
	}

	switch Kind(raw.Type) {
	case KindPurchaseCount:
		return PurchaseCount{Threshold: raw.Value}, nil
	case KindReviewCount:
		return ReviewCount{Threshold: raw.Value}, nil
	case KindNewReleasePurchase:
		return NewReleasePurchase{Days: raw.Days}, nil
	case KindGenreReadCount:
		return GenreReadCount{Threshold: raw.Value}, nil
	case KindAuthorReadCount:
		return AuthorReadCount{Threshold: raw.Value}, nil
	case KindCollectionSize:
		return CollectionSize{Threshold: raw.Value}, nil
	default:
		return Unknown{Type: raw.Type}, nil
	}
}

// MarshalCriterion - обратное преобразование, используется при загрузке каталога
func MarshalCriterion(c Criterion) ([]byte, error) {
	raw := rawCriterion{Type: string(c.Kind())}
	switch v := c.(type) {
	case PurchaseCount:
		raw.Value = v.Threshold
	case ReviewCount:
		raw.Value = v.Threshold
	case NewReleasePurchase:
		raw.Days = v.Days
	case GenreReadCount:
		raw.Value = v.Threshold
	case AuthorReadCount:
		raw.Value = v.Threshold
	case CollectionSize:
		raw.Value = v.Threshold
	case Unknown:
	}
	return json.Marshal(raw)
}
