package review

// defaultReviewTemplate is the built-in prompt asking the review engine to
// look over a sprint's changes and propose follow-up tasks. Operators can
// override it at .swarm-hug/<project>/prompts/review.md.
const defaultReviewTemplate = `You are reviewing the work completed this sprint.

Current task file:
{{tasks_content}}

Git log of everything committed this sprint:
{{git_log}}

Look for anything that deserves a follow-up task: incomplete work, missed
edge cases, TODOs left behind, or tests that should exist but don't.

If nothing needs following up, reply with exactly:
NO_FOLLOWUPS_NEEDED

Otherwise, reply with one checklist line per follow-up task, each of the
exact form:
- [ ] <description>

Do not number them and do not include anything else in your reply.
`
