package domain

// InvocationStatus — итоговый статус вызова action.
//
// Вызов журналируется только после завершения, поэтому все статусы финальные.
type InvocationStatus string

const (
	// InvocationStatusSucceeded — action вернул результат.
	InvocationStatusSucceeded InvocationStatus = "SUCCEEDED"

	// InvocationStatusFailed — все попытки завершились ошибкой.
	InvocationStatusFailed InvocationStatus = "FAILED"

	// InvocationStatusTimedOut — последняя попытка превысила таймаут.
	InvocationStatusTimedOut InvocationStatus = "TIMED_OUT"

	// InvocationStatusCancelled — вызов отменён.
	InvocationStatusCancelled InvocationStatus = "CANCELLED"
)

// String возвращает строковое представление статуса.
func (s InvocationStatus) String() string {
	return string(s)
}

// IsSuccess возвращает true для SUCCEEDED.
func (s InvocationStatus) IsSuccess() bool {
	return s == InvocationStatusSucceeded
}

// ParseInvocationStatus парсит строку в InvocationStatus.
// Второе значение — false для неизвестной строки.
func ParseInvocationStatus(s string) (InvocationStatus, bool) {
	switch InvocationStatus(s) {
	case InvocationStatusSucceeded, InvocationStatusFailed,
		InvocationStatusTimedOut, InvocationStatusCancelled:
		return InvocationStatus(s), true
	default:
		return "", false
	}
}

// Source — откуда пришёл вызов.
type Source string

const (
	SourceAPI       Source = "api"
	SourceWorker    Source = "worker"
	SourceScheduler Source = "scheduler"
	SourceCLI       Source = "cli"
)
