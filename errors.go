/*
 * errors.go, part of golmp.
 *
 * Copyright 2021 The golmp authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package lmp

import "fmt"

// LError is the error type for the root package. It fulfills the lmp.Error
// interface. The format packages each define their own, carrying the
// offending filename; topology-level problems have no single file so this
// one only carries a message.
type LError struct {
	message  string
	deco     []string
	critical bool
}

func (err LError) Error() string {
	return fmt.Sprintf("golmp error: %s", err.message)
}

// Decorate adds new information to the error
func (E LError) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// Critical returns true if the error is critical, false otherwise
func (err LError) Critical() bool { return err.critical }

const (
	UnresolvedReference = "Dangling atom reference"
	UnableToOpen        = "Unable to open file"
)
