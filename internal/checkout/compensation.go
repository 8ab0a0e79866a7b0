package checkout

import "log"

// compensation est le journal d'actions compensatoires d'un checkout.
// ScyllaDB n'a pas de transaction multi-requêtes : chaque écriture réussie
// empile son annulation, et en cas d'échec les annulations s'exécutent en
// ordre inverse pour revenir à l'état initial.
type compensation struct {
	steps []compensationStep
}

type compensationStep struct {
	label string
	undo  func() error
}

func newCompensation() *compensation {
	return &compensation{}
}

// push empile l'annulation d'une écriture qui vient de réussir.
func (c *compensation) push(label string, undo func() error) {
	c.steps = append(c.steps, compensationStep{label: label, undo: undo})
}

// run exécute toutes les annulations en ordre inverse et retourne celles qui
// ont échoué. Une annulation qui échoue n'interrompt pas les suivantes.
func (c *compensation) run() []error {
	var failures []error
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(); err != nil {
			log.Printf("⚠️ Compensation '%s' échouée: %v", step.label, err)
			failures = append(failures, err)
		}
	}
	return failures
}
