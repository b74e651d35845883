package addrlist

import "fmt"

// CommandPrefix is the RouterOS menu path entries are added under.
const CommandPrefix = "/ip firewall address-list"

// BuildCommand renders the add command for one address. The timeout
// argument is appended only when timeout is non-empty.
//
// Values are inserted verbatim. Callers must validate the address and
// the list name first.
func BuildCommand(address, listName, timeout string) string {
	cmd := fmt.Sprintf("%s add address=%s list=%s", CommandPrefix, address, listName)
	if timeout != "" {
		cmd += " timeout=" + timeout
	}
	return cmd
}
