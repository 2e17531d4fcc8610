// Package notify delivers flagged result code alerts. TaskDispatcher runs
// each alert as an independent background task; SlackNotifier and
// WebhookNotifier are the available senders.
package notify
