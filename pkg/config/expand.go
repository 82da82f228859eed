package config

import "strconv"

// ExpandAccounts returns the count account names a DiallerConfig (or the
// CLI's single synthesized one) expands to. When count <= 1 it returns
// just name. Otherwise, if name parses as an integer and fixed is false,
// accounts are name, name+1, ..., name+count-1; if name is not an integer
// or fixed is true, every entry shares name (spec.md §3 "DiallerConfig").
func ExpandAccounts(name string, count int, fixed bool) []string {
	if count <= 1 {
		return []string{name}
	}

	n, err := strconv.Atoi(name)
	if err != nil || fixed {
		accounts := make([]string, count)
		for i := range accounts {
			accounts[i] = name
		}
		return accounts
	}

	accounts := make([]string, count)
	for i := range accounts {
		accounts[i] = strconv.Itoa(n + i)
	}
	return accounts
}
