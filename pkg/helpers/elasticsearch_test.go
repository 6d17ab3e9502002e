package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewESClientRequiresAddresses(t *testing.T) {
	c, err := NewESClient(nil, "", "")
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestNewESClient(t *testing.T) {
	c, err := NewESClient([]string{"http://localhost:9200"}, "elastic", "changeme")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
