package mcpserver

// LinkGrammar describes the wikilink syntax and resolution rules so that
// LLM consumers write links the graph understands.
const LinkGrammar = `# Wikigraph Link Grammar

Notes are plain ` + "`" + `.md` + "`" + ` files inside a vault directory. Notes reference each
other with double-bracket wikilinks.

## Syntax

` + "```" + `
[[TARGET]]
[[TARGET#HEADING]]
[[TARGET|DISPLAY]]
[[TARGET#HEADING|DISPLAY]]
` + "```" + `

- ` + "`" + `TARGET` + "`" + ` is the note name without ` + "`" + `.md` + "`" + `. It may carry a folder prefix:
  ` + "`" + `[[Projects/Alpha]]` + "`" + `. It cannot contain ` + "`" + `]` + "`" + `, ` + "`" + `|` + "`" + ` or ` + "`" + `#` + "`" + `.
- ` + "`" + `HEADING` + "`" + ` anchors into the target note. It cannot contain ` + "`" + `|` + "`" + ` or ` + "`" + `]` + "`" + `.
- ` + "`" + `DISPLAY` + "`" + ` overrides the rendered text. It cannot contain ` + "`" + `]` + "`" + `.
- Surrounding whitespace in each part is ignored. ` + "`" + `[[ ]]` + "`" + ` is not a link.
- There is no escaping and no nesting.

## Resolution

A target resolves to the first of:

1. ` + "`" + `<vault>/<folder>/<name>.md` + "`" + ` when the target has a folder prefix.
2. ` + "`" + `<vault>/<name>.md` + "`" + `.
3. The first note anywhere in the vault whose name equals ` + "`" + `<name>` + "`" + `, ignoring case.

Files and folders whose name starts with ` + "`" + `.` + "`" + ` are invisible. When two notes share
a name in different folders, qualify the link with its folder.

## Backlinks

A note is a backlink source of ` + "`" + `X` + "`" + ` when it contains a link whose target, after
dropping any folder prefix, equals ` + "`" + `X` + "`" + ` ignoring case. A note never counts as a
backlink of itself. Query backlinks with the bare note name.
`
