package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolErrorMessage(t *testing.T) {
	err := New(CategoryExport, SeverityError, "no targets found")
	assert.Equal(t, "export (error): no targets found", err.Error())
}

func TestToolErrorWrapping(t *testing.T) {
	cause := stderrors.New("exit status 1")
	err := Wrap(cause, CategoryAnalysis, SeverityFatal, "cppcheck failed")

	assert.Equal(t, "analysis (fatal): cppcheck failed: exit status 1", err.Error())
	assert.True(t, stderrors.Is(err, cause))
}

func TestWithContext(t *testing.T) {
	err := ModelError("duplicate component").WithContext("component", "cxxshlib")
	assert.Equal(t, "cxxshlib", err.Context["component"])
}

func TestIsCategory(t *testing.T) {
	err := ConfigError("missing file")
	assert.True(t, IsCategory(err, CategoryConfig))
	assert.False(t, IsCategory(err, CategoryExport))
	assert.False(t, IsCategory(stderrors.New("plain"), CategoryConfig))
}

func TestGetCategory(t *testing.T) {
	assert.Equal(t, CategoryModel, GetCategory(ModelError("x")))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}
