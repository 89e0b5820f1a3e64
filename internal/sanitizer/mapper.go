package sanitizer

import "fmt"

// Category selects the placeholder namespace for a mapped identifier.
type Category int

// Mapper categories. Subnet and DeviceIP share one key space (an address
// string is either a CIDR block or a bare IP, never both), while Person
// and Org are tracked separately.
const (
	CategorySubnet Category = iota
	CategoryDeviceIP
	CategoryPerson
	CategoryOrg
)

// Mapper assigns stable placeholders to identifiers within one document.
// The first request for a key allocates the next counter value in its
// category; every later request for the same key returns the same
// placeholder. A Mapper is owned by exactly one in-flight sanitize call
// and must be discarded afterwards: reusing one across documents would
// leak identity correlations between unrelated tickets.
type Mapper struct {
	ips     map[string]string
	persons map[string]string
	orgs    map[string]string

	subnetCounter   int
	deviceIPCounter int
	personCounter   int
	orgCounter      int
}

// NewMapper returns an empty mapper with all counters at zero.
func NewMapper() *Mapper {
	return &Mapper{
		ips:     make(map[string]string),
		persons: make(map[string]string),
		orgs:    make(map[string]string),
	}
}

// Placeholder returns the stable placeholder for key in the given
// category, allocating one on first use.
func (m *Mapper) Placeholder(key string, cat Category) string {
	switch cat {
	case CategorySubnet, CategoryDeviceIP:
		if p, ok := m.ips[key]; ok {
			return p
		}
		var p string
		if cat == CategorySubnet {
			m.subnetCounter++
			p = fmt.Sprintf("Subnet %d", m.subnetCounter)
		} else {
			m.deviceIPCounter++
			p = fmt.Sprintf("Device IP %d", m.deviceIPCounter)
		}
		m.ips[key] = p
		return p
	case CategoryPerson:
		if p, ok := m.persons[key]; ok {
			return p
		}
		m.personCounter++
		p := fmt.Sprintf("Person_%d", m.personCounter)
		m.persons[key] = p
		return p
	case CategoryOrg:
		if p, ok := m.orgs[key]; ok {
			return p
		}
		m.orgCounter++
		p := fmt.Sprintf("Organization_%d", m.orgCounter)
		m.orgs[key] = p
		return p
	}
	panic(fmt.Sprintf("sanitizer: unknown mapper category %d", cat))
}

// Counts reports how many distinct identifiers have been mapped per
// category, for the run's audit record.
func (m *Mapper) Counts() (subnets, deviceIPs, persons, orgs int) {
	return m.subnetCounter, m.deviceIPCounter, m.personCounter, m.orgCounter
}
