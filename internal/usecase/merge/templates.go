package merge

// defaultMergeAgentTemplate is the built-in prompt instructing the merge
// engine how to bring a sprint branch into a target branch. Operators
// can override it at .swarm-hug/<project>/prompts/merge_agent.md.
const defaultMergeAgentTemplate = `You are merging {{feature_branch}} into {{target_branch}} in this worktree.

Banned strategies: squash, cherry-pick, rebase, diff-apply. These destroy
the ancestry this tool depends on.

The only permitted operation is:
  git merge --no-ff {{feature_branch}}

If there are conflicts, resolve them IN PLACE inside this merge. Do not
abort and retry with a different strategy. Before making any manual
commit, check whether MERGE_HEAD still exists — if it does, you are still
mid-merge and must finish it with "git commit", not a fresh commit.

After committing, verify the resulting commit has two parents
(git log -1 --format=%P should print two hashes). A commit with only one
parent means the merge was effectively a squash and the task has failed.
{{co_author}}
`
