package email

const (
	subjectFollowupReminderFmt = "Follow up with your lead: %s"
	subjectFollowupDigestFmt   = "%d followups due today"
	subjectOpenHouseLeadFmt    = "New open house visitor: %s"
)
