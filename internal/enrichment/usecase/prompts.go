package usecase

import (
	"fmt"
	"time"

	"flowstate-backend/internal/inbox/domain"
)

const summarizerSystem = `You are a concise email/message summarizer. Create a 1-2 sentence summary that captures:
1. The main point or request
2. Any action items or deadlines mentioned
3. The sender's intent

Be direct and professional. Do not include greetings or sign-offs in the summary.`

const deadlineExtractorSystem = `You extract deadlines and due dates from messages. For each deadline found, provide:
1. The deadline title/description
2. The due date in ISO format (YYYY-MM-DDTHH:MM:SS)
3. The original text that mentions the deadline
4. Your confidence level (0.0 to 1.0)

Today's date is %s. Use this to interpret relative dates like "tomorrow", "next week", "Friday", etc.

Respond in JSON format:
{
  "deadlines": [
    {
      "title": "deadline description",
      "due_at": "ISO date string",
      "source_text": "original text mentioning deadline",
      "confidence": 0.9
    }
  ]
}

If no deadlines are found, respond with {"deadlines": []}`

const actionClassifierSystem = `You classify messages by the type of action required from the recipient. Categories:
- reply_needed: Requires a response (questions, requests for information)
- review_needed: Requires review of attached document/content
- meeting_request: Calendar invite or meeting request
- task_assigned: A task or action item assigned to the recipient
- fyi_only: Informational only, no action needed
- none: Cannot be classified

Respond with only the category name.`

const priorityScorerSystem = `You score message priority from 1-100 based on:
- Urgency indicators (ASAP, urgent, deadline approaching)
- Sender importance (manager, client, automated system)
- Content criticality (financial, legal, time-sensitive)
- Action required type

Scoring guide:
- 90-100: Immediate action required (urgent from important sender)
- 70-89: High priority (action needed today)
- 50-69: Normal priority (action needed this week)
- 30-49: Low priority (informational, can wait)
- 1-29: Very low priority (newsletters, automated notifications)

Respond with only the numeric score.`

const categorizerSystem = `You categorize messages into one of these categories:
- work: Professional/work-related messages
- personal: Personal correspondence
- school: Education-related messages
- promotional: Marketing, sales, newsletters
- social: Social media notifications, invitations
- finance: Banking, payments, invoices
- other: Doesn't fit other categories

Respond with only the category name.`

// Body budgets per step. Classification steps get more context than
// scoring ones.
const (
	summaryBodyBudget = 2000
	scoreBodyBudget   = 1500
)

func promptBody(item *domain.Item, budget int) string {
	body := item.Body
	if body == "" {
		body = item.Snippet
	}
	if len(body) > budget {
		return domain.Truncate(body, budget) + "..."
	}
	return body
}

func promptSender(item *domain.Item) string {
	if item.SenderName != "" {
		return item.SenderName
	}
	if item.SenderEmail != "" {
		return item.SenderEmail
	}
	return "Unknown"
}

func promptSubject(item *domain.Item) string {
	if item.Subject != "" {
		return item.Subject
	}
	return "(No subject)"
}

func itemTypeLabel(itemType domain.ItemType) string {
	switch itemType {
	case domain.ItemMessage:
		return "message"
	case domain.ItemDirectMessage:
		return "direct message"
	case domain.ItemEvent:
		return "calendar event"
	case domain.ItemEventInvite:
		return "calendar invitation"
	default:
		return "message"
	}
}

func summarizerPrompt(item *domain.Item) (string, string) {
	user := fmt.Sprintf("Summarize this %s:\n\nFrom: %s\nSubject: %s\n\n%s",
		itemTypeLabel(item.ItemType), promptSender(item), promptSubject(item), promptBody(item, summaryBodyBudget))
	return summarizerSystem, user
}

func deadlineExtractorPrompt(item *domain.Item, today time.Time) (string, string) {
	system := fmt.Sprintf(deadlineExtractorSystem, today.Format("2006-01-02"))
	user := fmt.Sprintf("Extract deadlines from this message:\n\nSubject: %s\n\n%s",
		promptSubject(item), promptBody(item, summaryBodyBudget))
	return system, user
}

func actionClassifierPrompt(item *domain.Item) (string, string) {
	user := fmt.Sprintf("Classify the action required for this message:\n\nFrom: %s\nSubject: %s\n\n%s",
		promptSender(item), promptSubject(item), promptBody(item, summaryBodyBudget))
	return actionClassifierSystem, user
}

func priorityScorerPrompt(item *domain.Item) (string, string) {
	actionRequired := "No"
	if item.ActionRequired {
		actionRequired = "Yes"
	}
	user := fmt.Sprintf("Score the priority of this message (1-100):\n\nFrom: %s\nSubject: %s\nRequires action: %s\nAction type: %s\n\n%s",
		promptSender(item), promptSubject(item), actionRequired, item.ActionType, promptBody(item, scoreBodyBudget))
	return priorityScorerSystem, user
}

func categorizerPrompt(item *domain.Item) (string, string) {
	user := fmt.Sprintf("Categorize this message:\n\nFrom: %s\nSubject: %s\n\n%s",
		promptSender(item), promptSubject(item), promptBody(item, scoreBodyBudget))
	return categorizerSystem, user
}
