package cfdsdk

import (
	log "github.com/sirupsen/logrus"
)

type ClientOption func(client *cfdClient)

// WithVerbose enables debug logs.
func WithVerbose() ClientOption {
	return func(client *cfdClient) {
		log.SetLevel(log.DebugLevel)
	}
}

// WithoutContractStore skips persisting contracts and their versions,
// even if the store carries a contract repository.
func WithoutContractStore() ClientOption {
	return func(client *cfdClient) {
		client.withoutContractStore = true
	}
}
