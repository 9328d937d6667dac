package aws_handler

import (
	"errors"
	"testing"

	"tracker/src/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type secretsManagerMock struct {
	secretsmanageriface.SecretsManagerAPI
	secrets map[string]*string
}

func (m *secretsManagerMock) GetSecretValue(input *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
	value, ok := m.secrets[aws.StringValue(input.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException: secret not found")
	}
	return &secretsmanager.GetSecretValueOutput{Name: input.SecretId, SecretString: value}, nil
}

func newHandler() *AWSHandler {
	return &AWSHandler{SecretManager: NewSecretManager(&secretsManagerMock{secrets: map[string]*string{
		"tracker/db":     aws.String("from-secrets-manager"),
		"tracker/binary": nil,
	}})}
}

func TestGetSecretValue(t *testing.T) {
	manager := newHandler().SecretManager

	value, err := manager.GetSecretValue("tracker/db")
	require.NoError(t, err)
	assert.Equal(t, "from-secrets-manager", value)

	_, err = manager.GetSecretValue("tracker/binary")
	assert.Error(t, err)

	_, err = manager.GetSecretValue("missing")
	assert.Error(t, err)
}

func TestResolveDatabasePassword(t *testing.T) {
	handler := newHandler()

	t.Run("replaces the password", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Databases.SQL.Password = "local"
		cfg.Databases.SQL.PasswordSecretID = "tracker/db"

		require.NoError(t, handler.ResolveDatabasePassword(cfg))
		assert.Equal(t, "from-secrets-manager", cfg.Databases.SQL.Password)
	})

	t.Run("no secret configured", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Databases.SQL.Password = "local"

		require.NoError(t, handler.ResolveDatabasePassword(cfg))
		assert.Equal(t, "local", cfg.Databases.SQL.Password)
	})

	t.Run("lookup failure", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Databases.SQL.PasswordSecretID = "missing"
		assert.Error(t, handler.ResolveDatabasePassword(cfg))
	})
}
