package views

import (
	"fmt"
	"io"
)

// Pager tracks the 1-based active page against the server's page count.
type Pager struct {
	Current int
	Total   int
}

func NewPager() Pager {
	return Pager{Current: 1, Total: 1}
}

// Next advances unless already on the last page.
func (p *Pager) Next() bool {
	if p.Current < p.Total {
		p.Current++
		return true
	}
	return false
}

// Prev steps back unless already on page 1.
func (p *Pager) Prev() bool {
	if p.Current > 1 {
		p.Current--
		return true
	}
	return false
}

// Reset returns to page 1 and reports whether the page moved.
func (p *Pager) Reset() bool {
	moved := p.Current != 1
	p.Current = 1
	return moved
}

// Clamp keeps Current within [1, Total]; Total 0 clamps to 1.
func (p *Pager) Clamp() {
	if p.Current > p.Total {
		p.Current = p.Total
	}
	if p.Current < 1 {
		p.Current = 1
	}
}

func (p Pager) HasPrev() bool { return p.Current > 1 }
func (p Pager) HasNext() bool { return p.Current < p.Total }

// Visible reports whether pagination controls are shown at all.
func (p Pager) Visible() bool { return p.Total > 1 }

func renderPagination(w io.Writer, p Pager) {
	if !p.Visible() {
		return
	}
	prev, next := "[Anterior]", "[Próxima]"
	if !p.HasPrev() {
		prev = "(Anterior)"
	}
	if !p.HasNext() {
		next = "(Próxima)"
	}
	fmt.Fprintf(w, "\n%s  Página %d de %d  %s\n", prev, p.Current, p.Total, next)
}
