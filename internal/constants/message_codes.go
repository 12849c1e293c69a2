package constants

const (
	MESSAGE_CODE_JOB_CREATED   = "evaluation_job_created"
	MESSAGE_CODE_JOB_RETRIEVED = "evaluation_job_retrieved"
	MESSAGE_CODE_JOB_STARTED   = "evaluation_job_started"
	MESSAGE_CODE_JOB_COMPLETED = "evaluation_job_completed"
	MESSAGE_CODE_JOB_FAILED    = "evaluation_job_failed"
	MESSAGE_CODE_JOB_UPDATED   = "evaluation_job_updated"
)
