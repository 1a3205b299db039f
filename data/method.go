// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package data

import (
	"errors"
	"fmt"
)

var ErrInvalidMethod = errors.New("invalid magic formula method")

// Method selects which two fields feed the earnings yield and return on
// capital sub-rankings
type Method int

const (
	PEAndROE        Method = 1
	EVEBITAndROIC   Method = 2
	EVEBITDAAndROIC Method = 3
)

const DefaultMethod = EVEBITAndROIC

// MethodFields names the fields used by a method. EarningsYield is ranked
// ascending and ReturnOnCapital descending.
type MethodFields struct {
	EarningsYield   Field
	ReturnOnCapital Field
}

var methodFields = map[Method]MethodFields{
	PEAndROE:        {EarningsYield: PEField, ReturnOnCapital: ROEField},
	EVEBITAndROIC:   {EarningsYield: EVtoEBITField, ReturnOnCapital: ROICField},
	EVEBITDAAndROIC: {EarningsYield: EVtoEBITDAField, ReturnOnCapital: ROICField},
}

// Methods lists every supported method in selector order
func Methods() []Method {
	return []Method{PEAndROE, EVEBITAndROIC, EVEBITDAAndROIC}
}

// ParseMethod converts a selector from the command line into a Method
func ParseMethod(selector int) (Method, error) {
	method := Method(selector)
	if !method.Valid() {
		return 0, fmt.Errorf("%w: %d (expected 1, 2, or 3)", ErrInvalidMethod, selector)
	}
	return method, nil
}

func (method Method) Valid() bool {
	_, ok := methodFields[method]
	return ok
}

// Fields returns the fields for the method; an invalid method returns the zero value
func (method Method) Fields() MethodFields {
	return methodFields[method]
}

func (method Method) String() string {
	fields, ok := methodFields[method]
	if !ok {
		return fmt.Sprintf("Method(%d)", int(method))
	}
	return fmt.Sprintf("%s and %s", fields.EarningsYield.Label(), fields.ReturnOnCapital.Label())
}
