package rag

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// answerSystemPrompt defines the mentor persona for answer generation.
const answerSystemPrompt = `You are an elite software engineering mentor helping users solve LeetCode problems.
Use the retrieved contextual snippets to craft explanations that are:
- precise, technically accurate, and aligned with the problem's constraints
- structured with clear steps, highlighting trade-offs when relevant
- encouraging, yet honest about complexities

Respond in plain markdown. Do not wrap the answer in code fences unless the content is code.`

const answerUserPrompt = `Problem:
Title: {problem_title}
Difficulty: {difficulty}
URL: {url}

Canonical description:
{problem_description}

Retrieved knowledge:
{context}

Recent conversation:
{history}

Learner's latest question:
{question}`

const summarySystemPrompt = `You condense mentoring answers into takeaways.
Reply with 2-3 short bullet points, each at most 16 words, and nothing else.`

const summaryUserPrompt = `Problem: {problem_title} ({difficulty})
Question: {question}

Full answer:
{answer}`

// newAnswerTemplate builds the chat template for answer generation.
func newAnswerTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(answerSystemPrompt),
		schema.UserMessage(answerUserPrompt),
	)
}

// newSummaryTemplate builds the chat template for the summary call.
func newSummaryTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(summaryUserPrompt),
	)
}

// promptVariables derives the answer template variables from pipeline state.
// Pure: identical state always yields identical variables.
func promptVariables(s State) map[string]any {
	url := s.Problem.URL
	if url == "" {
		url = "n/a"
	}

	description := s.Problem.Description
	if description == "" {
		description = "Not provided."
	}

	snippets := make([]string, 0, len(s.Context))
	for _, chunk := range s.Context {
		snippets = append(snippets, chunk.PromptSnippet())
	}
	contextBlock := strings.Join(snippets, "\n\n")
	if contextBlock == "" {
		contextBlock = "No extra context available."
	}

	lines := make([]string, 0, len(s.History))
	for _, message := range s.History {
		lines = append(lines, fmt.Sprintf("%s: %s", titleRole(message.Role), message.Content))
	}
	historyBlock := strings.Join(lines, "\n")
	if historyBlock == "" {
		historyBlock = "No prior conversation."
	}

	return map[string]any{
		"problem_title":       s.Problem.Title,
		"difficulty":          s.Problem.Difficulty,
		"url":                 url,
		"problem_description": description,
		"context":             contextBlock,
		"history":             historyBlock,
		"question":            s.Question,
	}
}

// summaryVariables derives the summary template variables from state that
// already carries the finished answer.
func summaryVariables(s State) map[string]any {
	return map[string]any{
		"problem_title": s.Problem.Title,
		"difficulty":    s.Problem.Difficulty,
		"question":      s.Question,
		"answer":        s.Answer,
	}
}

// titleRole uppercases the first letter of a role for history rendering.
func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
