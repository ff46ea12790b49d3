package orchestrator

import (
	"strings"

	"github.com/dshills/monosplit/internal/llm"
	"github.com/dshills/monosplit/pkg/types"
)

// ruleSet is the directive part of a prompt for one language
type ruleSet struct {
	intro string
	rules []string
}

var pythonRules = ruleSet{
	intro: "You are a senior Python engineer. Refactor the following monolithic Flask application into a modular, production-grade project.",
	rules: []string{
		"Separate logic into: routes/, models/, utils/",
		"Put route handlers inside routes/routes.py",
		"Wrap all route definitions in a function: register_routes(app)",
		"Define `app = Flask(__name__)` **only** in app.py",
		"app.py **must call** register_routes(app)",
		"In routes/__init__.py add: `from routes.routes import register_routes`",
		"Use **absolute imports** like `from routes.routes import register_routes`, not relative ones",
		"Add all required imports in each file (e.g., from flask import request, jsonify)",
		"Add empty `__init__.py` in each folder (routes, models, utils)",
		"Ensure the final structure runs out-of-the-box with `python app.py`",
		"Output each file using `# File: path/to/file.py` format",
	},
}

var javascriptRules = ruleSet{
	intro: "You are a senior JavaScript engineer. Refactor the following monolithic Express application into a modular, production-grade project.",
	rules: []string{
		"Separate logic into: routes/, models/, utils/",
		"Put route handlers inside routes/routes.js",
		"Wrap all route definitions in a function exported as `module.exports = { registerRoutes }` taking (app)",
		"Create the Express app with `const app = express()` **only** in app.js",
		"app.js **must call** registerRoutes(app)",
		"Use CommonJS `require` with relative paths like `require('./routes/routes')`",
		"Add all required imports in each file",
		"Ensure the final structure runs out-of-the-box with `node app.js`",
		"Output each file using `# File: path/to/file.js` format, even for JavaScript files",
	},
}

// BuildPrompt embeds the language's rule set and the chunk text verbatim
func BuildPrompt(lang types.Language, chunk string) string {
	rs := pythonRules
	if lang == types.LanguageJavaScript {
		rs = javascriptRules
	}

	var sb strings.Builder
	sb.WriteString(rs.intro)
	sb.WriteString("\n\nStrictly follow these rules:\n")
	for _, rule := range rs.rules {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(llm.CodeMarker)
	sb.WriteString("\n")
	sb.WriteString(chunk)
	return sb.String()
}
