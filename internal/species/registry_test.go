package species

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
)

const speciesJSON = `{
  "hsap": {"name": ["Homo sapiens"], "panther_name": "HUMAN", "group_name": "mammals"},
  "mmus": {"name": ["Mus musculus", "house mouse"], "panther_name": "MOUSE"},
  "btau": {"name": ["Bos taurus"], "panther_name": "BOVIN"}
}`

func TestParse(t *testing.T) {
	reg, err := Parse(strings.NewReader(speciesJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"btau", "hsap", "mmus"}, reg.Codes())

	mouse, err := reg.Get("mmus")
	require.NoError(t, err)
	assert.Equal(t, "MOUSE", mouse.PantherName)
	assert.Equal(t, "Mus musculus", mouse.DisplayName())
}

func TestTargetsExcludeSource(t *testing.T) {
	reg, err := Parse(strings.NewReader(speciesJSON))
	require.NoError(t, err)

	targets := reg.Targets("hsap")
	require.Len(t, targets, 2)
	assert.Equal(t, "btau", targets[0].Code)
	assert.Equal(t, "mmus", targets[1].Code)

	tags := reg.TargetTags("hsap")
	assert.Contains(t, tags, "MOUSE")
	assert.Contains(t, tags, "BOVIN")
	assert.NotContains(t, tags, "HUMAN")
}

func TestGetUnknown(t *testing.T) {
	reg := New()
	_, err := reg.Get("xxxx")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestParseRequiresPantherName(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"mmus": {"name": ["Mus musculus"]}}`))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfig))
}
