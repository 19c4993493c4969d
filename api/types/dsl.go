/*
 * Copyright 2024 The WeaveGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// AdvisorChain is the declarative definition of a set of advisors, parsed
// from JSON. Example:
//
//	{
//	  "advisors": [
//	    {
//	      "id": "trace",
//	      "type": "log",
//	      "order": 10,
//	      "methods": ["Get*", "Save"],
//	      "pointcut": "targetType == '*service.UserService'",
//	      "configuration": {}
//	    }
//	  ]
//	}
type AdvisorChain struct {
	Advisors []*AdvisorDefinition `json:"advisors"`
}

// AdvisorDefinition describes one advisor: which advice component to
// instantiate, where it applies and its order.
type AdvisorDefinition struct {
	// Id is the unique identifier of the advisor, any string.
	Id string `json:"id"`
	// Type selects the advice component. It must match one of the component
	// types registered in the component registry, e.g. "log", "metrics",
	// "limiter", "fallback", "js".
	Type string `json:"type"`
	// Order is the execution order, the smaller the value, the higher the
	// priority.
	Order int `json:"order"`
	// Methods are wildcard patterns matched against method names, e.g.
	// "Get*". Empty means every method.
	Methods []string `json:"methods,omitempty"`
	// Pointcut is an expression evaluated against the join point metadata,
	// e.g. `methodName startsWith "Get" && targetType contains "Service"`. An
	// expression referencing `args` is refined per call against the runtime
	// arguments. Empty means every method.
	Pointcut string `json:"pointcut,omitempty"`
	// Configuration holds the component specific parameters, e.g. a js
	// component has a `jsScript` field with the advice body.
	Configuration Configuration `json:"configuration,omitempty"`
}
