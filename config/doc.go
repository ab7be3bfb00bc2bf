// Package config loads declarative client and request definitions
// from YAML or JSON files and materializes them into riposte configs.
//
// # Definitions Schema
//
// Definition files use YAML or JSON format:
//
//	variables:
//	  baseUrl: "https://api.example.com"
//	  token: "your-auth-token"
//
//	clients:
//	  api:
//	    connectTimeout: 5s
//	    followRedirects: normal
//	    version: http2
//	    userAgent: "riposte/1.0"
//
//	requests:
//	  login:
//	    uri: "{{baseUrl}}/login"
//	    method: POST
//	    client: api
//	    headers:
//	      Content-Type: application/json
//	    body:
//	      user: admin
//	      password: "{{token}}"
//	    extract:
//	      sessionId: "$.session.id"
//	    schema: loginResponse
//
//	schemas:
//	  loginResponse:
//	    type: object
//	    required: [session]
//
// # Loading Definitions
//
//	defs, err := config.Load("riposte.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if errs := defs.Validate(); len(errs) > 0 {
//	    log.Fatal(errs[0])
//	}
//
//	client, err := defs.BuildClient("api")
//	reqCfg, err := defs.RequestConfig("login", nil)
//	resp, err := client.Send(ctx, reqCfg, nil)
//
// After a send, extract paths pull values out of the response body for
// use in later requests, and schema references validate the body:
//
//	vars, err := defs.ApplyExtract("login", resp, nil)
//	valid, verrs := defs.ValidateResponse("login", resp)
//
// Header values accept either a scalar or a list, durations accept
// integer milliseconds or Go duration strings, and {{name}}
// placeholders are substituted from the variables section merged with
// caller-supplied values.
package config
