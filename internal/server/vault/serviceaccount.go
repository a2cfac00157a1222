package vault

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/common"
)

// ServiceAccountType is the only accepted value of the "type" field.
const ServiceAccountType = "service_account"

var requiredFields = []string{
	"type", "project_id", "private_key_id", "private_key",
	"client_email", "client_id", "auth_uri", "token_uri",
}

// ServiceAccount is a Google service-account key file.
type ServiceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
	UniverseDomain          string `json:"universe_domain,omitempty"`
}

// JSON returns the key file bytes, as expected by provider SDKs.
func (sa *ServiceAccount) JSON() ([]byte, error) {
	return json.Marshal(sa)
}

// ParseServiceAccount validates and decodes an uploaded key file. All missing
// required fields are reported together.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, common.NewValidationError("invalid JSON format")
	}

	var missing []string
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, common.NewValidationError(
			fmt.Sprintf("invalid service account JSON, missing fields: %s", strings.Join(missing, ", ")))
	}

	sa := &ServiceAccount{}
	if err := json.Unmarshal(raw, sa); err != nil {
		return nil, common.NewValidationError("invalid JSON format")
	}

	if sa.Type != ServiceAccountType {
		return nil, common.NewValidationError("JSON file must be a service account key (type: 'service_account')")
	}

	return sa, nil
}
