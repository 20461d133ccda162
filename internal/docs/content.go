package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with codegen",
		Content: topicQuickstart,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Config file schema, fields, defaults and environment overrides",
		Content: topicConfig,
	},
	{
		Name:    "providers",
		Title:   "LLM Providers",
		Summary: "Provider selection, API keys, models and retries",
		Content: topicProviders,
	},
	{
		Name:    "pipeline",
		Title:   "Execution Model",
		Summary: "Develop, troubleshoot and test-fix phases and their attempt limits",
		Content: topicPipeline,
	},
	{
		Name:    "sections",
		Title:   "Response Sections",
		Summary: "How model output is split into sections and routed to files",
		Content: topicSections,
	},
	{
		Name:    "prompts",
		Title:   "Prompt Templates",
		Summary: "Built-in templates, overrides and placeholders",
		Content: topicPrompts,
	},
	{
		Name:    "artifacts",
		Title:   "Artifacts Directory",
		Summary: "Structure of .codegen/artifacts/ and the run history",
		Content: topicArtifacts,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize the target project:

    cd your-api-project
    codegen init

   This creates .codegen/config.yaml, editable prompt templates under
   .codegen/prompts/ and .codegen/.env.example.

2. Set one provider key, either in the environment or in .env at the
   project root:

    OPENAI_API_KEY=sk-...

3. Generate a module:

    codegen run --module book --description "A catalog of books with title and author"

   The module name is pluralized ("book" becomes "books"). Without flags
   codegen asks for both values.

4. Inspect the result:

    codegen status
    codegen history

5. When a run ends with failing code or tests:

    codegen doctor
`

const topicConfig = `Configuration Reference
=======================

File: .codegen/config.yaml (optional). codegen looks for it in --root, then
walks up from the current directory. Without a config file the current
directory is the project root and every default applies.

Precedence: environment > config file > defaults.

Top-level fields:

  name          Project name, shown as the root of the generated file tree.
                Default: the project directory name.

  layout:
    modules-dir     Directory holding one folder per module.
                    Default: src/modules
    migrations-dir  Directory for generated migrations.
                    Default: src/infra/data/migrations
    source-ext      Extension of generated files. Default: .ts
    shared:         Project-wide files every module registers itself in.
      ALL_API_ROUTES  Default: src/modules/apiRoutes.ts
      ALL_CONSTANTS   Default: src/common/constants.ts
      ALL_DI_CONFIG   Default: src/modules/diConfig.ts
      ALL_SEEDS       Default: src/infra/data/seeds/init.ts

  commands:
    compile   Type-checks the project. Default: tsc -p .
    test      Runs one e2e test file; $TEST_FILE is the project-relative
              path. Default: npm run local:test $TEST_FILE
    timeout   Minutes before a command is killed. 0 disables. Default: 0

  attempts:
    regenerate  Develop rounds, the first one included. At least 1.
                Default: 4
    fix-code    Troubleshoot rounds. 0 disables compile repair.
                Default: 4
    fix-tests   Test-fix rounds. 0 runs the tests once without repair.
                Default: 4

  llm:
    provider     Force a provider (openai, anthropic, openrouter, deepseek,
                 gemini, ollama). Default: first provider with a key.
    model        Override the provider's model id.
    max-tokens   Default: 8000
    temperature  Default: 0.4
    retry-max    Retries of server errors. Default: 5

  examples:
    files:           Reference module sources shown to the model, keyed by
                     ROUTES, CONTROLLERS, REPOSITORY, DI_CONFIG, TYPES,
                     E2E_TESTS, MIGRATIONS.
    services:        Service files shown to the developer prompt.
    repair-service:  Service file shown to the repair prompts.

  prompts-dir   Directory with template overrides. Default: none.
  log:
    level       debug, info, warn, error. Default: info
    file        Rotated JSON log. Default: .codegen/logs/codegen.log
  ledger        SQLite run history. Empty disables.
                Default: .codegen/history.db

Environment overrides:

  MAX_REGENERATE_CODE_ATTEMPTS   attempts.regenerate
  MAX_FIX_CODE_ATTEMPTS          attempts.fix-code
  MAX_FIX_E2E_TESTS_ATTEMPTS     attempts.fix-tests
  LOG_LEVEL                      log.level
  CODEGEN_PROVIDER               llm.provider

A .env file in the project root is loaded first. Variables already set in
the environment are not overwritten.
`

const topicProviders = `LLM Providers
=============

The first provider whose key is set is used, in this order:

  1. openai      OPENAI_API_KEY       model OPENAI_MODEL_ID
                 (default gpt-4o-mini)
  2. anthropic   CLAUDE_API_KEY       model ANTHROPIC_CLAUDE_MODEL_ID
                 (default claude-3-5-haiku-20241022)
  3. openrouter  OPEN_ROUTER_API_KEY  model OPEN_ROUTER_MODEL_ID
                 (default nousresearch/hermes-3-llama-3.1-405b:free)
  4. deepseek    DEEP_SEEK_API_KEY    model DEEP_SEEK_MODEL_ID
                 (default deepseek-chat)
  5. gemini      GEMINI_API_KEY       model GEMINI_MODEL_ID
                 (default gemini-2.0-flash)
  6. ollama      OLLAMA_HOST          model OLLAMA_MODEL_ID
                 (default qwen2.5-coder)

llm.provider or CODEGEN_PROVIDER forces one provider; its key must still be
set. llm.model overrides the model id of whichever provider is selected.

Requests that fail with a server error (HTTP 5xx) are retried up to
llm.retry-max times, each after a random pause between 10 and 20 seconds.
Any other failure ends the request at once. The SDKs' own retries are
disabled.

When a provider does not report token usage, codegen estimates it from the
prompt and the response text.
`

const topicPipeline = `Execution Model
===============

A run goes through three phases. Each phase is a loop bounded by its
attempt limit.

1. develop (attempts.regenerate)
   The developer prompt asks for every file of the module. After each
   round codegen checks which required files were never produced:

     ALL_API_ROUTES ALL_CONSTANTS ALL_DI_CONFIG ALL_SEEDS CONTROLLERS
     REPOSITORY DI_CONFIG ROUTES MIGRATIONS SERVICES E2E_TESTS

   TYPES is optional. The next round is told to generate only the missing
   ones. Files produced earlier stay on disk.

2. troubleshoot (attempts.fix-code)
   commands.compile runs once up front. While it fails, the compile output
   (plus a list of files that were never generated) is sent to the repair
   prompt and the answer is written over the module's files. When the last
   attempt still does not compile, the run stops with compile_failed.

3. testfix (attempts.fix-tests)
   commands.test runs the module's e2e test file. While it fails, the test
   output goes to the test repair prompt.

Only one migration exists per module. When a round produces a new
migration, the previous one is deleted once the new file is on disk.

Final statuses:

  completed       compiles and the tests pass
  tests_failing   compiles, tests still failing after the last attempt
  compile_failed  compile still failing after the last attempt
  interrupted     Ctrl-C or SIGTERM

At the end codegen prints the token usage and the tree of generated files.
`

const topicSections = `Response Sections
=================

The model answers with sections. A section starts with *** or ### followed
by a header line; the rest is the file content.

    ***ROUTES
    ...
    ***SERVICE - AddBook
    ...

Header keywords and where they are written (<m> is the module directory):

  ROUTES                          <m>/routes.ts
  CONTROLLERS                     <m>/controllers.ts
  REPOSITORY                      <m>/repository.ts
  SERVICE - <Class>               <m>/<class>.service.ts
  SERVICE                         <m>/get<Module>.service.ts
  DI_CONFIG, DEPENDENCY_INJECTION <m>/diConfig.ts
  TYPES                           <m>/types.ts
  E2E_TESTS, TESTS                <m>/tests/api.spec.ts
  MIGRATIONS                      <migrations-dir>/<timestamp>_create_<module>_table.ts
  ALL_API_ROUTES, ALL_CONSTANTS,
  ALL_DI_CONFIG, ALL_SEEDS        the shared file from layout.shared

Headers may carry a numeric prefix ("1. ROUTES") and are case-insensitive.
Lines starting with a backtick are dropped, so fenced code is unwrapped.

Sections with no keyword, an unknown keyword or no content are skipped and
logged. A skipped section never stops the run. Files are replaced
atomically.
`

const topicPrompts = `Prompt Templates
================

Three templates are built in:

  developer.main.prompt       generates the module
  troubleshooter.main.prompt  repairs compile errors
  testsFixer.main.prompt      repairs failing e2e tests

'codegen init' copies them to .codegen/prompts/. Set prompts-dir to a
directory holding files with the same names to use your own versions.
Missing files fall back to the built-in text.

Placeholders are written {{NAME}} and replaced in a single pass; text
inserted for one placeholder is never scanned again. Unknown placeholders
are left as they are.

Developer:
  PROJECT_DESCRIPTION  MISSING_FILES_INSTRUCTION  SERVICES_EXAMPLE
  ROUTES_EXAMPLE  CONTROLLERS_EXAMPLE  REPOSITORY_EXAMPLE  DI_CONFIG_EXAMPLE
  TYPES_EXAMPLE  E2E_TESTS_EXAMPLE  MIGRATIONS_EXAMPLE
  ALL_API_ROUTES  ALL_CONSTANTS  ALL_DI_CONFIG  ALL_SEEDS

Troubleshooter:
  PROJECT_DESCRIPTION  ERROR_TEXT  MODULE_SERVICES  SERVICES_EXAMPLE
  MODULE_ROUTES  MODULE_CONTROLLERS  MODULE_REPOSITORY  MODULE_TYPES
  MODULE_E2E_TESTS  DI_CONFIG_EXAMPLE  ALL_API_ROUTES  ALL_CONSTANTS
  ALL_DI_CONFIG

TestsFixer:
  PROJECT_DESCRIPTION  ERROR_TEXT  MODULE_SERVICES  SERVICES_EXAMPLE
  MODULE_ROUTES  MODULE_CONTROLLERS  MODULE_REPOSITORY  MODULE_MIGRATIONS
  MODULE_E2E_TESTS (example test followed by the generated test)  ALL_SEEDS

Service sources are inserted as blocks of the form

    ***SERVICE - <name>:
    <content>
`

const topicArtifacts = `Artifacts Directory
===================

Every module gets .codegen/artifacts/<module>/, rewritten by each run:

  state.json            run id, phase, status, attempts per phase,
                        migration, missing buckets, generated files, tokens
  timing.json           start, end and duration of every round
  prompts/<agent>-<n>.md
                        the rendered prompt of round n
  logs/compile-<n>.log  output of the n-th compile
  logs/tests-<n>.log    output of the n-th test run
  feedback/<phase>-<n>.md
                        error text handed to a repair round
  metrics.prom          Prometheus text-format metrics of the run

'codegen status' renders state.json for the most recent module, or for
--module.

Run history lives in .codegen/history.db (SQLite): one row per run and one
per round. 'codegen history' lists the latest runs.

Child processes see CODEGEN_MODULE, CODEGEN_RUN_ID, CODEGEN_ARTIFACTS_DIR
and CODEGEN_PROJECT_ROOT.
`
