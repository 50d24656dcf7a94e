// Package prompt composes the four oracle prompts. Every prompt that
// expects a structured reply repeats the output contract verbatim and
// forbids any surrounding prose, because the reply is parsed as data.
package prompt

import (
	"fmt"
	"strings"
)

// pluginContract describes the sandbox requirements every generated plugin
// must satisfy. Embedded into each prompt that may produce plugin code.
const pluginContract = `The code of the plugin you produce must satisfy some specifications, since it will be executed inside a sandboxed Go interpreter:

1. Entry point: the plugin must define exactly one exported function with the signature

   func Run(args []string) (string, error)

   This function is the entry point for the plugin execution. A "package main" clause and import statements are allowed; any other top-level declarations should be helpers used by Run.

2. Arguments: the arguments are passed as a slice of strings, already parsed and unquoted. Validate the argument count inside Run and return an error for bad input.

3. Return values: return the result as the string value; return a non-nil error to signal failure. Do not call os.Exit or panic.

4. Imports: only Go standard library packages are available by default (strings, strconv, fmt, math, regexp, encoding/json, encoding/base64, time, sort, bytes, unicode, unicode/utf8, path, path/filepath). You can also use external modules; they will be installed automatically before execution.`

// selectionContract is the structured-output contract for every prompt
// whose reply is a selection decision.
const selectionContract = `IMPORTANT: The response you provide must be exclusively in the following JSON format with nothing else attached, so that your response can be parsed by the application code:

{
  "response": "yes"/"no",
  "pluginId": "id plugin"/"null",
  "newPluginCode": "null"/"code",
  "newPluginDependencies": "null"/"dependencies",
  "pluginArguments": "arguments string",
  "pluginDescription": "null"/"description"
}`

// dependencyRules explains the dependency and argument field conventions.
const dependencyRules = `You also have to provide the list of module paths that must be installed to run the new plugin, inside the newPluginDependencies field, comma separated. If there are no dependencies the field must be "" and not "none" or any other word, only the empty quotes. The pluginArguments field must be a string that can be used as is to execute the plugin, containing the parameters extracted from the user request, comma separated. If no arguments are needed use "" and not "none" or any other word, only the empty quotes.
The pluginDescription field is a description that you can use in the future to identify the plugin in a more effective and precise way.`

// pureJSONReminder closes every structured prompt.
const pureJSONReminder = `There must be nothing else than the JSON in your response. It is a fundamental requirement. You can ONLY answer with a JSON object; no sentences, no titles like "Output:" before the JSON, no markdown fences. It must be a clean JSON.`

// InitialSelection builds the first prompt of a turn: given the user
// request and the full plugin catalog, the oracle either selects a stored
// plugin or authors a new one.
func InitialSelection(userRequest, catalogJSON, historyJSON string) string {
	var b strings.Builder

	b.WriteString(`I ask you to perform a coverage evaluation of a feature by a series of plugins present within a software. You will need to analyze a request expressed by a human user and decide, by analyzing the code and other information of the available plugins, whether one of them is able to satisfy the user's request.

Input Description
I provide you with a string called userRequest containing a natural language request specified by a human user, and a second string called allPlugins in JSON format, listing plugins written in Go. For each plugin its id, its code, its natural-language description, and the requests it has previously satisfied with positive user feedback are specified. Base your evaluation on all of these factors. If allPlugins is empty ("{}"), assume there are no available plugins and the response is automatically negative. In case of a negative response you have to provide the code of a new Go plugin that tries to satisfy the request, along with the list of module dependencies it needs. In every case you also have to provide an arguments string that can be used directly to execute the chosen or produced plugin, extracting the parameter values from the user request, and a brief description for future analysis.

Output Description
`)
	b.WriteString(selectionContract)
	b.WriteString(`

where the response field takes the value "yes" or "no" depending on whether you believe an available plugin can satisfy the user's request. The pluginId field takes the unique id of that plugin, or "null" if none qualifies. The newPluginCode field contains the code of the new plugin you produce when no existing one qualifies, and "null" otherwise.

`)
	b.WriteString(pluginContract)
	b.WriteString("\n\n")
	b.WriteString(dependencyRules)
	b.WriteString(`
As additional information you can use the history of the conversation between this application and yourself, under the chatHistory field of the input, in JSON format.
`)
	b.WriteString(pureJSONReminder)
	b.WriteString("\n\nInput Data\nBelow are the data you need to use to respond:\n\nuserRequest:\n")
	b.WriteString(userRequest)
	b.WriteString("\n\nallPlugins:\n")
	b.WriteString(catalogJSON)
	b.WriteString("\n\nchatHistory:\n")
	b.WriteString(historyJSON)
	b.WriteString("\n\nREMEMBER YOU CAN RESPOND ONLY WITH A PURE JSON! THIS IS A FUNDAMENTAL REQUIREMENT!")

	return b.String()
}

// MalfunctionRepair builds the repair prompt for a plugin that failed
// during execution. The mandated reply is the corrected source only, with
// no JSON wrapper and no commentary.
func MalfunctionRepair(pluginCode, userRequest, errorMessage, pluginArguments, historyJSON string) string {
	return fmt.Sprintf(`The plugin that has just been executed has encountered errors while being executed. This is its code:
%s

The request that the plugin should have satisfied is:
%s

This is the error message from the plugin execution:
"%s"

These are the arguments passed to the plugin:
"%s"

You have to modify the plugin code so that it works without returning errors. You cannot modify the arguments: the new plugin code must work as is, with the same arguments, and it must keep the required entry point signature func Run(args []string) (string, error). In the response you have to provide only the complete corrected code and absolutely nothing else. No titles, no other words, no markdown fences. You can use the history of the chat between this application and yourself, expressed as JSON, to provide a valid response more easily; pay attention to it to avoid repeating the same errors.
Chat history:
%s`, pluginCode, userRequest, errorMessage, pluginArguments, historyJSON)
}

// NegativeFeedbackNewPlugin builds the revision prompt after the user
// rejected the result of a freshly generated plugin. The reply shape is the
// selection contract with response fixed to "no" and pluginId fixed to
// "null": the oracle must produce a corrected new plugin.
func NegativeFeedbackNewPlugin(userRequest, lastReply, problemComment, pluginError, historyJSON string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You have responded to this user's request:
%s
with this response:
%s
After the execution of the plugin, the user expressed a negative feedback about the result: a wrong result or a problem in executing the plugin has occurred. The user's comment about the negative feedback is:
"%s"
You have to use this comment to understand what is wrong and produce a new response without the problems of the previous one. The new response has to follow all the rules and specifications as the previous one.
`, userRequest, lastReply, problemComment)

	if pluginError != "" {
		b.WriteString("The error previously returned by the plugin is also available:\n")
		b.WriteString(pluginError)
		b.WriteString("\n")
	}

	b.WriteString("\nOutput Description\n")
	b.WriteString(fixedNegativeContract())
	b.WriteString("\n\n")
	b.WriteString(pluginContract)
	b.WriteString("\n\n")
	b.WriteString(dependencyRules)
	b.WriteString("\n")
	b.WriteString(pureJSONReminder)
	b.WriteString(`
As additional information you can use the history of the conversation between this application and yourself, under the chatHistory field, in JSON format.
chatHistory:
`)
	b.WriteString(historyJSON)
	b.WriteString("\n\nREMEMBER YOU CAN RESPOND ONLY WITH A PURE JSON! THIS IS A FUNDAMENTAL REQUIREMENT!")

	return b.String()
}

// NegativeFeedbackExistingPlugin builds the revision prompt after the user
// rejected the result of a stored plugin. The full catalog is included so
// the oracle can reconsider every available plugin before deciding to
// author a replacement.
func NegativeFeedbackExistingPlugin(userRequest, lastReply, problemComment, pluginError, catalogJSON, historyJSON string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You have responded to this user's request:
%s
with this response:
%s
After the execution of the existing plugin, the user expressed a negative feedback about the result: a wrong result or a problem in executing the plugin has occurred. The user's comment about the negative feedback is:
"%s"
You have to use this comment to understand what is wrong and produce a new response without the problems of the previous one. Considering that you previously decided one of the already existing plugins was suitable to satisfy the request, here is the set of available plugins, so that you can reason again over all of them:
%s
You can decide that it is better to create a new plugin. The new response has to follow all the rules and specifications as the previous one.
`, userRequest, lastReply, problemComment, catalogJSON)

	if pluginError != "" {
		b.WriteString("The error previously returned by the plugin is also available:\n")
		b.WriteString(pluginError)
		b.WriteString("\n")
	}

	b.WriteString(`
Probably you have to change the arguments used to call the plugin, since it has been tested, working and approved by the user before. You have to regenerate the response following the usual specifications for the output.

Output Description
`)
	b.WriteString(fixedNegativeContract())
	b.WriteString("\n\n")
	b.WriteString(pluginContract)
	b.WriteString("\n\n")
	b.WriteString(dependencyRules)
	b.WriteString("\n")
	b.WriteString(pureJSONReminder)
	b.WriteString(`
As additional information you can use the history of the conversation between this application and yourself, under the chatHistory field, in JSON format.
chatHistory:
`)
	b.WriteString(historyJSON)
	b.WriteString("\n\nREMEMBER YOU CAN RESPOND ONLY WITH A PURE JSON! THIS IS A FUNDAMENTAL REQUIREMENT!")

	return b.String()
}

// fixedNegativeContract is the selection contract with response and
// pluginId pinned: after negative feedback the oracle has already judged
// the catalog, so only a new plugin is acceptable.
func fixedNegativeContract() string {
	return `IMPORTANT: The response you provide must be exclusively in the following JSON format with nothing else attached, so that your response can be parsed by the application code:

{
  "response": "no",
  "pluginId": "null",
  "newPluginCode": "code",
  "newPluginDependencies": "null"/"dependencies",
  "pluginArguments": "arguments string",
  "pluginDescription": "description"
}

where the response field can only be "no", since you already evaluated the existing plugins and you only have to produce a modified new plugin that works. The pluginId field will be "null", since there is no id of an existing plugin to execute. The newPluginCode field will contain the code of the new plugin you produce.`
}
