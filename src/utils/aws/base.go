package aws_handler

import (
	"tracker/src/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

type AWSHandler struct {
	SecretManager *SecretManager
}

func NewAWSHandler(region string) (*AWSHandler, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region)},
	)

	if err != nil {
		return nil, err
	}

	svc := secretsmanager.New(sess)
	secretManager := NewSecretManager(svc)

	return &AWSHandler{
		SecretManager: secretManager,
	}, nil
}

// ResolveDatabasePassword replaces the configured DB password with the Secrets Manager value when a
// secret id is configured.
func (h *AWSHandler) ResolveDatabasePassword(cfg *config.Config) error {
	secretID := cfg.Databases.SQL.PasswordSecretID
	if secretID == "" {
		return nil
	}
	password, err := h.SecretManager.GetSecretValue(secretID)
	if err != nil {
		return err
	}
	cfg.Databases.SQL.Password = password
	return nil
}
