package domain

import "fmt"

// Notification message content shown to users. Kept in one place so the
// frontend copy stays consistent across aggregates.
const (
	MsgProjectCreated = "Project has been created!"
	MsgProjectUpdated = "Project has been updated!"
	MsgSubjectCreated = "Subject has been created!"
	MsgSubjectUpdated = "Subject has been updated!"
	MsgReportRequested = "Report generation has started."
)

// MsgLabelerJoined announces a labeler joining a project to the project owner.
func MsgLabelerJoined(userName, projectName string) string {
	return fmt.Sprintf("User %s joined project %s!", userName, projectName)
}

// MsgEntityDeleted is the synthesized audit message for soft deletions.
func MsgEntityDeleted(label string) string {
	return fmt.Sprintf("%s has been deleted!", label)
}
