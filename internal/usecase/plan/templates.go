package plan

// defaultScrumMasterTemplate is the built-in prompt asking the planning
// engine to distribute tasks across agents. Operators can override it at
// .swarm-hug/<project>/prompts/scrum_master.md.
const defaultScrumMasterTemplate = `You are the scrum master for this sprint. Assign up to {{to_assign}} of the
{{num_unassigned}} unassigned tasks below across {{num_agents}} agent(s),
at most {{tasks_per_agent}} task(s) per agent.

Agents:
{{agent_list}}
Unassigned tasks (by line number):
{{task_list}}

Prefer spreading tasks across distinct agents before giving any agent a
second task. Respect task order as priority. Never assign a task whose
blockers are not yet done.

Reply with ONLY a JSON object of this exact shape, no commentary:
{"assignments": [{"agent": "A", "line": 3, "reason": "short reason"}, ...]}
`
