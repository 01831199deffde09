package importer

import (
	"context"
)

// defaultReviewerName is used when an imported review carries an email but no
// display name.
const defaultReviewerName = "Imported Reviewer"

// resolveReviewers collects the distinct reviewer emails across every group,
// issues one bulk lookup, and mints an identity for each email with no match.
// Each creation is independently fallible: a failed mint only removes that
// email from the map, which later fails the affected reviews, never the batch.
func (e *Engine) resolveReviewers(ctx context.Context, tenantID string, groups []Group, result *runResult) (map[string]UserRef, error) {
	names := make(map[string]string)
	var emails []string
	for _, group := range groups {
		for _, review := range group.Reviews {
			if _, seen := names[review.Email]; !seen {
				emails = append(emails, review.Email)
				names[review.Email] = review.Name
			}
			// Prefer the first non-empty display name seen for the email.
			if names[review.Email] == "" && review.Name != "" {
				names[review.Email] = review.Name
			}
		}
	}

	reviewers := make(map[string]UserRef, len(emails))
	if len(emails) == 0 {
		return reviewers, nil
	}

	found, err := e.users.FindByEmails(ctx, tenantID, emails)
	if err != nil {
		return nil, err
	}
	for _, user := range found {
		reviewers[user.Email] = user
	}

	for _, email := range emails {
		if _, ok := reviewers[email]; ok {
			continue
		}
		name := names[email]
		if name == "" {
			name = defaultReviewerName
		}
		user, err := e.users.CreateReviewer(ctx, tenantID, name, email)
		if err != nil {
			e.logger.WithError(err).WithField("email", email).Warn("Failed to create reviewer identity")
			result.addError(0, ColReviewUserEmail, "REVIEWER_CREATE_FAILED",
				"failed to create reviewer identity for "+email+": "+err.Error())
			continue
		}
		reviewers[email] = user
	}

	return reviewers, nil
}
