package events

// Topic constants for domain events emitted by the register.
const (
	TopicTransactionCompleted = "transaction.completed"
	TopicTransactionHeld      = "transaction.held"
	TopicTransactionResumed   = "transaction.resumed"
	TopicTransactionCanceled  = "transaction.canceled"
	TopicTransactionRestocked = "transaction.restocked"
)

// DefaultTopics returns every topic the register emits.
func DefaultTopics() []string {
	return []string{
		TopicTransactionCompleted,
		TopicTransactionHeld,
		TopicTransactionResumed,
		TopicTransactionCanceled,
		TopicTransactionRestocked,
	}
}
