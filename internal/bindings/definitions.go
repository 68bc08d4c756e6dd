package bindings

const (
	ActionSubmit          ActionID = "submit"
	ActionGotoPrompt      ActionID = "goto_prompt"
	ActionGotoRelative    ActionID = "goto_relative"
	ActionReload          ActionID = "reload"
	ActionRefreshMetadata ActionID = "refresh_metadata"
	ActionInspect         ActionID = "inspect"
	ActionView            ActionID = "view"
	ActionRemove          ActionID = "remove"
	ActionQueriesStatus   ActionID = "queries_status"
	ActionCommands        ActionID = "commands"
	ActionHistory         ActionID = "history"
	ActionMenu            ActionID = "menu"
	ActionHome            ActionID = "home"
	ActionCleanCache      ActionID = "clean_cache"
	ActionCopyLink        ActionID = "copy_link"
	ActionUp              ActionID = "up"
	ActionNextPane        ActionID = "next_pane"
	ActionToggleHelp      ActionID = "toggle_help"
	ActionCancel          ActionID = "cancel"
	ActionQuit            ActionID = "quit"
)

type definition struct {
	id          ActionID
	description string
	defaults    [][]string
	repeatable  bool
	singleOnly  bool
}

var definitions = []definition{
	{id: ActionSubmit, description: "Submit the current query again", defaults: [][]string{{"ctrl+r"}}, singleOnly: true},
	{id: ActionGotoPrompt, description: "Go to a query", defaults: [][]string{{":"}, {"g", "o"}}},
	{id: ActionGotoRelative, description: "Go to a query relative to the current one", defaults: [][]string{{"g", "r"}}},
	{id: ActionReload, description: "Reload the result without submitting", defaults: [][]string{{"r"}}},
	{id: ActionRefreshMetadata, description: "Poll metadata again", defaults: [][]string{{"m"}}},
	{id: ActionInspect, description: "Inspect evaluation of the current query", defaults: [][]string{{"i"}}},
	{id: ActionView, description: "View the current query without submitting", defaults: [][]string{{"v"}}},
	{id: ActionRemove, description: "Remove the current query from the cache", defaults: [][]string{{"x"}}},
	{id: ActionQueriesStatus, description: "Show active queries", defaults: [][]string{{"s"}}},
	{id: ActionCommands, description: "List server commands", defaults: [][]string{{"c"}}},
	{id: ActionHistory, description: "Show visited queries", defaults: [][]string{{"h"}}},
	{id: ActionMenu, description: "Show the server menu", defaults: [][]string{{"g", "m"}}},
	{id: ActionHome, description: "Load the server root", defaults: [][]string{{"g", "h"}}},
	{id: ActionCleanCache, description: "Clean the server cache", defaults: [][]string{{"g", "c"}}},
	{id: ActionCopyLink, description: "Copy the result link", defaults: [][]string{{"y"}}},
	{id: ActionUp, description: "Go to the parent query", defaults: [][]string{{"u"}, {"backspace"}}, repeatable: true},
	{id: ActionNextPane, description: "Focus the next pane", defaults: [][]string{{"tab"}}},
	{id: ActionToggleHelp, description: "Toggle help", defaults: [][]string{{"?"}}},
	{id: ActionCancel, description: "Close prompt or overlay", defaults: [][]string{{"esc"}}},
	{id: ActionQuit, description: "Quit", defaults: [][]string{{"q"}, {"ctrl+c"}}},
}

var definitionLookup = func() map[ActionID]definition {
	out := make(map[ActionID]definition, len(definitions))
	for _, def := range definitions {
		out[def.id] = def
	}
	return out
}()

// Describe returns the help text for an action.
func Describe(id ActionID) string {
	return definitionLookup[id].description
}
