package sprint

// defaultAgentTaskTemplate is the built-in prompt handed to an engine
// executing one assigned task inside its agent worktree. Operators can
// override it at .swarm-hug/<project>/prompts/agent.md. Unlike the
// original engine-authored prompt this template does not ask the agent to
// merge itself anywhere — the runner performs that merge mechanically
// after the engine exits successfully.
const defaultAgentTaskTemplate = `You are agent {{agent_name}}, working alone in a dedicated git worktree on
your own agent branch. Complete the following task:

{{task_description}}

Reference material for this project lives under {{team_dir}} inside this
worktree (tasks.md, specs.md, prompt.md) — read it if you need more
context on how the project is organized.

When finished, stage and commit your changes:

  git add -A
  git commit -m "{{task_short}}"

Do not attempt to merge or push anywhere yourself; the runner takes care
of integrating your branch once you exit.
{{co_author}}
`
