package email

// Built-in fallback content, used when no active template of a type exists in
// the database. Admin-authored templates always take precedence.
var defaultTemplates = map[string]struct{ subject, html string }{
	TypeApplicationReceived: {
		subject: "We received your application",
		html: "<p>Hi {{name}},</p>" +
			"<p>Thanks for applying to the {{track}} track of {{cohort}}. " +
			"We will review your application and get back to you shortly.</p>",
	},
	TypeApplicationShortlisted: {
		subject: "You have been shortlisted",
		html: "<p>Hi {{name}},</p>" +
			"<p>Good news - your application for the {{track}} track has been shortlisted. " +
			"The next step is a short assessment; please submit it from your dashboard.</p>",
	},
	TypeApplicationAccepted: {
		subject: "Welcome aboard!",
		html: "<p>Hi {{name}},</p>" +
			"<p>Congratulations! You have been accepted into the {{track}} track of {{cohort}}.</p>" +
			"<p>Sign in at <a href=\"{{login_url}}\">{{login_url}}</a> with your email and the " +
			"temporary password <strong>{{password}}</strong>, then change it right away.</p>",
	},
	TypeApplicationRejected: {
		subject: "Update on your application",
		html: "<p>Hi {{name}},</p>" +
			"<p>Thank you for applying to the {{track}} track. After careful review we are " +
			"unable to offer you a place this time.</p><p>{{reason}}</p>",
	},
	TypeAssessmentReceived: {
		subject: "Assessment received",
		html: "<p>Hi {{name}},</p>" +
			"<p>We received your assessment submission. Our reviewers will score it and you " +
			"will hear from us soon.</p>",
	},
	TypeAssessmentReviewed: {
		subject: "Your assessment has been reviewed",
		html: "<p>Hi {{name}},</p>" +
			"<p>Your {{submission_type}} submission has been reviewed. Watch your inbox " +
			"for the next steps in your application.</p>",
	},
	TypeInterviewInvitation: {
		subject: "Interview invitation",
		html: "<p>Hi {{name}},</p>" +
			"<p>You are invited to an interview on {{interview_time}}.</p>" +
			"<p>Join via <a href=\"{{meeting_url}}\">{{meeting_url}}</a>. A calendar invite " +
			"is attached.</p>",
	},
	TypePasswordReset: {
		subject: "Password reset",
		html: "<p>Hi {{name}},</p>" +
			"<p>Follow <a href=\"{{reset_url}}\">this link</a> to reset your password. " +
			"If you did not request a reset, you can ignore this email.</p>",
	},
}
