package deploy_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bluefn/spind/internal/app/deploy"
)

func TestNamerFormat(t *testing.T) {
	assert := assert.New(t)

	namer := deploy.NewNamer()
	for i := 0; i < 20; i++ {
		assert.Regexp(`^spin-[a-z]+-[a-z]+-[1-9][0-9]{3}$`, namer.Generate())
	}
}

func TestNamerUniqueness(t *testing.T) {
	assert := assert.New(t)

	// A fixed seed that would repeat without the seen check.
	namer := deploy.NewNamerWithRand(rand.New(rand.NewSource(42)))

	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		name := namer.Generate()
		assert.False(seen[name], "name %s was generated twice", name)
		seen[name] = true
	}
}
