package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompensationRunsInReverseOrder(t *testing.T) {
	comp := newCompensation()

	var executed []string
	for _, label := range []string{"a", "b", "c"} {
		label := label
		comp.push(label, func() error {
			executed = append(executed, label)
			return nil
		})
	}

	failures := comp.run()
	assert.Empty(t, failures)
	assert.Equal(t, []string{"c", "b", "a"}, executed)
}

func TestCompensationContinuesAfterFailure(t *testing.T) {
	comp := newCompensation()

	var executed []string
	comp.push("premier", func() error {
		executed = append(executed, "premier")
		return nil
	})
	comp.push("cassé", func() error {
		executed = append(executed, "cassé")
		return errors.New("annulation impossible")
	})
	comp.push("dernier", func() error {
		executed = append(executed, "dernier")
		return nil
	})

	failures := comp.run()
	assert.Len(t, failures, 1)
	assert.Equal(t, []string{"dernier", "cassé", "premier"}, executed,
		"une annulation qui échoue n'interrompt pas les suivantes")
}

func TestCompensationEmpty(t *testing.T) {
	assert.Empty(t, newCompensation().run())
}
