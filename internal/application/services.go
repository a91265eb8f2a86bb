package application

// Services bundles the use cases the inbound adapters drive.
type Services struct {
	Audits  *AuditService
	Fixes   *FixService
	Batches *BatchService
	Rules   *RuleService
}
