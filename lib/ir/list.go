package ir

// link is embedded in every instruction and threads it into one List.
type link struct {
	prev, next Instr
	list       *List
}

func (l *link) base() *link { return l }

// List is a doubly linked instruction sequence. An instruction belongs to at
// most one list at a time.
type List struct {
	head, tail Instr
	n          int
}

func (l *List) Len() int     { return l.n }
func (l *List) Front() Instr { return l.head }
func (l *List) Back() Instr  { return l.tail }

// Contains reports whether i has been inserted into l.
func (l *List) Contains(i Instr) bool { return i.base().list == l }

func Next(i Instr) Instr { return i.base().next }
func Prev(i Instr) Instr { return i.base().prev }

func (l *List) detached(i Instr) {
	if i.base().list != nil {
		panic("ir: instruction " + i.String() + " is already in a list")
	}
}

func (l *List) PushBack(i Instr) {
	l.detached(i)
	b := i.base()
	b.list, b.prev, b.next = l, l.tail, nil
	if l.tail != nil {
		l.tail.base().next = i
	} else {
		l.head = i
	}
	l.tail = i
	l.n++
}

func (l *List) PushFront(i Instr) {
	if l.head == nil {
		l.PushBack(i)
		return
	}
	l.InsertBefore(i, l.head)
}

// InsertBefore inserts i immediately before mark, which must be in l.
func (l *List) InsertBefore(i, mark Instr) {
	l.detached(i)
	m := mark.base()
	if m.list != l {
		panic("ir: insertion mark not in list")
	}
	b := i.base()
	b.list, b.prev, b.next = l, m.prev, mark
	if m.prev != nil {
		m.prev.base().next = i
	} else {
		l.head = i
	}
	m.prev = i
	l.n++
}

// InsertAfter inserts i immediately after mark, which must be in l.
func (l *List) InsertAfter(i, mark Instr) {
	m := mark.base()
	if m.next == nil {
		if m.list != l {
			panic("ir: insertion mark not in list")
		}
		l.PushBack(i)
		return
	}
	l.InsertBefore(i, m.next)
}

func (l *List) Remove(i Instr) {
	b := i.base()
	if b.list != l {
		return
	}
	if b.prev != nil {
		b.prev.base().next = b.next
	} else {
		l.head = b.next
	}
	if b.next != nil {
		b.next.base().prev = b.prev
	} else {
		l.tail = b.prev
	}
	b.list, b.prev, b.next = nil, nil, nil
	l.n--
}

// Slice returns the instructions in order.
func (l *List) Slice() []Instr {
	out := make([]Instr, 0, l.n)
	for i := l.head; i != nil; i = i.base().next {
		out = append(out, i)
	}
	return out
}
