package conversation

import (
	"errors"
	"fmt"

	"github.com/tottenjordan/zghost/internal/domain"
)

// ErrTrendAlreadySelected is returned when a trend of the same kind was
// already chosen during this conversation round.
var ErrTrendAlreadySelected = errors.New("trend already selected")

// SelectTrend records a user trend selection and returns the follow-up query
// to submit. Each trend kind can be selected at most once per round; the
// selector is hidden once both kinds are chosen.
func (c *Conversation) SelectTrend(kind domain.TrendKind, trend domain.Trend) (string, error) {
	switch kind {
	case domain.TrendKindGoogle:
		if c.selectedGoogle != "" {
			return "", ErrTrendAlreadySelected
		}
		c.selectedGoogle = trend.Name
		if c.selectedYouTube != "" {
			c.selectorHidden = true
		}
		return fmt.Sprintf("select google trend: %s", trend.Name), nil
	case domain.TrendKindYouTube:
		if c.selectedYouTube != "" {
			return "", ErrTrendAlreadySelected
		}
		c.selectedYouTube = trend.Title
		if c.selectedGoogle != "" {
			c.selectorHidden = true
		}
		return fmt.Sprintf("select youtube trend: %s", trend.Title), nil
	default:
		return "", fmt.Errorf("unknown trend kind: %s", kind)
	}
}

// SelectedTrends returns the current selections, empty when unset.
func (c *Conversation) SelectedTrends() (google, youtube string) {
	return c.selectedGoogle, c.selectedYouTube
}

// TrendSelectorVisible reports whether the trend picker should be offered.
func (c *Conversation) TrendSelectorVisible() bool { return !c.selectorHidden }
