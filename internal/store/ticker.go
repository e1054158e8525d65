package store

import (
	"fmt"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
)

// Ticker content pools. Entries are synthetic: the feed is cosmetic and
// never derived from real transactions.
var (
	tickerCountries = []string{"MX", "CO", "BR", "EG", "NG", "ID"}
	tickerActions   = []string{"joined", "paid for"}
	tickerNames     = []string{"Diego", "Maria", "Carlos", "Ana", "Ahmed", "Fatima", "Jose", "Sofia"}
)

const tickerLength = 10

// OrderTicker produces ten synthetic recent-activity entries drawn from
// the first six catalog products.
func (s *Store) OrderTicker() []domain.TickerEntry {
	s.mu.RLock()
	pool := make([]string, 0, 6)
	for i, p := range s.state.Products {
		if i == 6 {
			break
		}
		pool = append(pool, p.Name)
	}
	s.mu.RUnlock()

	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	entries := make([]domain.TickerEntry, 0, tickerLength)
	for i := 0; i < tickerLength; i++ {
		product := "product"
		if len(pool) > 0 {
			product = pool[s.rnd.Intn(len(pool))]
		}
		entries = append(entries, domain.TickerEntry{
			Country: tickerCountries[s.rnd.Intn(len(tickerCountries))],
			Name:    tickerNames[s.rnd.Intn(len(tickerNames))],
			Action:  tickerActions[s.rnd.Intn(len(tickerActions))],
			Product: product,
			Time:    fmt.Sprintf("%d min ago", s.rnd.Intn(30)+1),
		})
	}
	return entries
}
