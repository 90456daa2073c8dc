package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emaginer/internal/errs"
)

func TestTemplateDefinition_Registration(t *testing.T) {
	def, err := templateDefinition(TemplateRegistration, map[string]string{
		"activationUrl": "http://localhost/users/verify-account/1/abc",
	})
	require.NoError(t, err)
	assert.Contains(t, def.subject, "Welcome")
	assert.Contains(t, def.body, "http://localhost/users/verify-account/1/abc")
}

func TestTemplateDefinition_ForgotPassword(t *testing.T) {
	def, err := templateDefinition(TemplateForgotPassword, map[string]string{
		"resetUrl": "http://localhost/users/reset-password/abc",
	})
	require.NoError(t, err)
	assert.Contains(t, def.body, "http://localhost/users/reset-password/abc")
}

func TestTemplateDefinition_NoParams(t *testing.T) {
	// шаблоны без параметров переживают nil params
	for _, tmpl := range []EmailTemplate{TemplateActivation, TemplateResetPassword} {
		def, err := templateDefinition(tmpl, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, def.subject)
		assert.NotEmpty(t, def.body)
	}
}

func TestTemplateDefinition_Unknown(t *testing.T) {
	_, err := templateDefinition(EmailTemplate(99), nil)
	assert.ErrorIs(t, err, errs.ErrNoTemplate)
}
