package critter

// Store is the canonical table of critter records. It assigns ids and
// holds records; it enforces no business rules. Creation is the only
// way in and records are never removed.
type Store struct {
	records map[ID]*Critter
	order   []ID // creation order, for deterministic iteration
	nextID  ID
}

func NewStore() *Store {
	return &Store{records: make(map[ID]*Critter)}
}

// NextID returns the id the next Create call will assign.
func (s *Store) NextID() ID {
	return s.nextID
}

// Create assigns the next unused id to the record, stores it and
// returns the id.
func (s *Store) Create(c Critter) ID {
	id := s.nextID
	s.nextID++
	c.ID = id
	s.records[id] = &c
	s.order = append(s.order, id)
	return id
}

// Get returns a copy of the record.
func (s *Store) Get(id ID) (Critter, error) {
	rec, ok := s.records[id]
	if !ok {
		return Critter{}, ErrUnknownCritter
	}
	return *rec, nil
}

// GetMut returns the stored record for in-place mutation by the owning
// service.
func (s *Store) GetMut(id ID) (*Critter, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrUnknownCritter
	}
	return rec, nil
}

// Has reports whether id exists.
func (s *Store) Has(id ID) bool {
	_, ok := s.records[id]
	return ok
}

// Len returns the number of records ever created.
func (s *Store) Len() int {
	return len(s.records)
}

// All iterates records in creation order.
func (s *Store) All(fn func(Critter) bool) {
	for _, id := range s.order {
		if !fn(*s.records[id]) {
			return
		}
	}
}

// Restore replaces the store contents. Used by snapshot import only.
func (s *Store) Restore(records []Critter, nextID ID) {
	s.records = make(map[ID]*Critter, len(records))
	s.order = make([]ID, 0, len(records))
	for i := range records {
		rec := records[i]
		s.records[rec.ID] = &rec
		s.order = append(s.order, rec.ID)
	}
	s.nextID = nextID
}
