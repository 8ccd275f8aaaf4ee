/*
Package sitewizard is a per-user customization wizard engine: many users walk
concurrently through a multi-step, template-driven configuration flow that ends
in the generation of a static site.

The engine keeps one session per user. Each operation takes that user's lock,
loads the session, applies a pure transition of the flow machine, persists the
result and returns a Response describing what to render next. Templates are data
(a catalog of steps and fields), so branching per template needs no code.

# Architecture

  - pkg/templates: immutable catalog of templates and themes (YAML, JSON, TOML).
  - pkg/validation: named field rules.
  - pkg/flow: the transition function and the prompts.
  - pkg/session: per-user locking, expiry and the background sweeper.
  - pkg/adapters: session stores (memory, file, redis), generators, HTTP and MCP transports.

# Usage

	eng, err := sitewizard.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	eng.Start(ctx, "user-1")
	eng.SelectTemplate(ctx, "user-1", "memecoin")
	resp, err := eng.SubmitField(ctx, "user-1", "coinName", "FlokiElonMoon")
	if errors.Is(err, domain.ErrFieldValidation) {
		for _, fe := range resp.Errors {
			fmt.Println(fe)
		}
	}

Generation runs outside the session lock. A result that arrives after the user
edited or reset the session is discarded.
*/
package sitewizard
