package mcpserver

// DocumentFormatContract describes the header, checklist and folder
// conventions doclife reads and writes.
const DocumentFormatContract = `# doclife Document Format

Lifecycle documents are Markdown files under the configured document roots.

## Status header

` + "```" + `markdown
# Feature title

**Status**: approved
**Last Updated**: 2025-01-15
` + "```" + `

- The status line may also be written ` + "`" + `**Status:**` + "`" + ` or ` + "`" + `**Current Status**:` + "`" + `,
  optionally as a list item (` + "`" + `- **Status**: ...` + "`" + `).
- Recognized values: ` + "`" + `draft` + "`" + `, ` + "`" + `approved` + "`" + `, ` + "`" + `in-progress` + "`" + `, ` + "`" + `implemented` + "`" + `, ` + "`" + `staged` + "`" + `.
- Only the first status line and the first last-updated line are used.
- Without a header, the parent folder name decides the state; otherwise the
  document is a draft.

## Checklists

- Checked items: ` + "`" + `[x]` + "`" + `, ` + "`" + `[X]` + "`" + `, ` + "`" + `[✓]` + "`" + `, ` + "`" + `[✔]` + "`" + `, ` + "`" + `[✅]` + "`" + `, ` + "`" + `[☑]` + "`" + `.
- Unchecked items: ` + "`" + `[ ]` + "`" + ` and ` + "`" + `[-]` + "`" + `.
- Completion is checked / total, rounded down. A document without items is 0%.

## Folders

Documents live in a base directory with four lifecycle folders beside them:

` + "```" + `
docs/design/
  feature-a.md            draft
  approved/feature-b.md
  in-progress/feature-c.md
  implemented/feature-d.md
  staged/feature-e.md
` + "```" + `

## Automatic transitions

1. ` + "`" + `approved` + "`" + ` becomes ` + "`" + `in-progress` + "`" + ` when code outside the document roots
   changed in the revision range.
2. ` + "`" + `in-progress` + "`" + ` becomes ` + "`" + `implemented` + "`" + ` when every checklist item is checked.

Promotion to ` + "`" + `approved` + "`" + ` and ` + "`" + `staged` + "`" + ` is always manual. Documents under
ephemeral directories (such as ` + "`" + `scratch-pads/` + "`" + `) are never managed.
`
