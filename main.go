// Public domain.

package main

import "github.com/sagasurvey/saga/internal/sagaprog"

func main() {
	sagaprog.Main()
}
