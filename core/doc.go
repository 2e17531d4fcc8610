// Package core contains the watcher domain contracts, configuration and the
// decrypt, classify and notify pipeline. Adapters (crypto, chat senders, HTTP
// surface) depend on this package; core must not depend on them.
package core
