package guess

import (
	"math/rand"
	"sync"
)

// Flavor phrases shown with each classification. Presentation only,
// nothing reads them back.
var (
	correctTexts = []string{
		"Správně",
		"Výborně",
		"Trefa",
		"ANO!",
		"Super",
		"Dobře ty!",
	}
	almostTexts = []string{
		"Zkus to ještě jednou",
		"Vloudila se ti tam chybička",
		"Skoro",
		"Ještě to úplně nesedí",
		"Těsně vedle",
	}
	wrongTexts = []string{
		"Špatně",
		"Tak to není",
		"Bohužel nic",
		"Je mi líto, tak ne",
		"Nene",
		"Nee",
	}
)

// Responder picks a flavor phrase for a result. The random source is
// injected so callers (and tests) control it instead of relying on a
// process-wide generator. A single Responder is shared across request
// handlers, so draws are serialized with a mutex.
type Responder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewResponder creates a Responder drawing from the given source.
func NewResponder(src rand.Source) *Responder {
	return &Responder{rng: rand.New(src)}
}

// Text returns one phrase for the result, chosen uniformly at random.
// Unknown results yield an empty string.
func (r *Responder) Text(res Result) string {
	var pool []string
	switch res {
	case ResultCorrect:
		pool = correctTexts
	case ResultAlmost:
		pool = almostTexts
	case ResultWrong:
		pool = wrongTexts
	}
	if len(pool) == 0 {
		return ""
	}
	r.mu.Lock()
	i := r.rng.Intn(len(pool))
	r.mu.Unlock()
	return pool[i]
}
