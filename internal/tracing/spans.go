package tracing

// Span attribute keys used across agent runs, tasks, and queue batches.
const (
	AttrProvider   = "agent.provider"
	AttrSessionID  = "agent.session_id"
	AttrFork       = "agent.fork"
	AttrCostUSD    = "agent.cost_usd"
	AttrDurationMs = "agent.duration_ms"
	AttrTokens     = "agent.tokens"

	AttrTaskID      = "task.id"
	AttrTaskAttempt = "task.attempt"
	AttrTaskStatus  = "task.status"

	AttrQueueFile  = "queue.file"
	AttrQueueTasks = "queue.tasks"

	AttrSessionName = "session.name"
)

// Span names.
const (
	SpanRun        = "runner.run"
	SpanTask       = "service.task"
	SpanQueue      = "service.queue"
	SpanSessionRun = "session.run"
)
