package net

import (
	"fmt"
	"io"
)

// Summary writes a table of the network's layers to w.
func (n *Network) Summary(w io.Writer) {
	fmt.Fprintln(w, "Model: Dense")
	fmt.Fprintln(w, "_________________________________________________________________")
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (activation)", "Output Shape", "Param #")
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "%-25s %-20s %-10d\n", "Input", fmt.Sprintf("(%d)", n.InputWidth()), 0)

	for i, l := range n.layers {
		params := l.InSize()*l.OutSize() + l.OutSize()
		fmt.Fprintf(w, "%-25s %-20s %-10d\n",
			fmt.Sprintf("Dense_%d (%s)", i, l.Kind()), fmt.Sprintf("(%d)", l.OutSize()), params)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Total params: %d\n", n.ParamCount())
	fmt.Fprintln(w, "_________________________________________________________________")
}
