// Package googleauth resolves the service-account credential used for both
// the Sheets and Drive clients.
package googleauth

import (
	"fmt"
	"os"

	"google.golang.org/api/option"
)

// Scopes required by the application: full spreadsheet access plus write
// access to Drive files the service account created.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive.file",
}

// SetupInstructions is shown when no credential can be resolved.
const SetupInstructions = `No Google credentials found. To set up:
  1. Create a Google Cloud project and enable the Sheets API and Drive API.
  2. Create a service account and download its JSON key.
  3. Set GOOGLE_SERVICE_ACCOUNT_JSON to the key contents, or
     GOOGLE_APPLICATION_CREDENTIALS to the key file path.
  4. Share the spreadsheet and Drive folder with the service account email.`

// ClientOptions builds the client options for the Google API clients from
// inline key material or a key file path. inlineJSON wins when both are set.
func ClientOptions(inlineJSON, credentialsFile string) ([]option.ClientOption, error) {
	if inlineJSON != "" {
		return []option.ClientOption{
			option.WithCredentialsJSON([]byte(inlineJSON)),
			option.WithScopes(Scopes...),
		}, nil
	}

	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err == nil {
			return []option.ClientOption{
				option.WithCredentialsFile(credentialsFile),
				option.WithScopes(Scopes...),
			}, nil
		}
	}

	return nil, fmt.Errorf("googleauth: no credentials configured")
}
